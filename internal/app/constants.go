package app

const (
	Name           = "thermogo"
	ConfigFilename = "config.json"
	DBFilename     = "telemetry.db"
	LogFilename    = "app.log"
)
