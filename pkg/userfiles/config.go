package userfiles

// Config holds storage bucket configuration. An empty Bucket disables the
// cleaner; account deletion then skips the storage purge step.
type Config struct {
	Bucket         string `env:"USER_FILES_BUCKET"`
	Region         string `env:"USER_FILES_REGION" envDefault:"us-east-1"`
	AccessKeyID    string `env:"USER_FILES_ACCESS_KEY_ID"`
	SecretKey      string `env:"USER_FILES_SECRET_KEY"`
	Endpoint       string `env:"USER_FILES_ENDPOINT"`
	ForcePathStyle bool   `env:"USER_FILES_FORCE_PATH_STYLE"`
}

// Enabled reports whether a cleaner can be constructed from the
// configuration.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}
