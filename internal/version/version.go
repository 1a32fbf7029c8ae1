package version

const (
	AppName    = "Maestro"
	AppVersion = "0.3.0"
)
