package database

type Config struct {
	FileName string `envconfig:"DCS_DB_FILE" default:"dcs.db"`
}
