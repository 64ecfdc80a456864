package sqlite

import "github.com/rpggio/tracereplay/internal/repository"

var (
	_ repository.ActivityRepository = (*ActivityRepository)(nil)
	_ repository.APIKeyRepository   = (*APIKeyRepository)(nil)
)
