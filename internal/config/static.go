package config

import "time"

// Static is a fixed-value Config, used by tests and embedders that
// bypass file/environment loading.
type Static struct {
	AppName        string
	DataDir        string
	Env            string
	BaseURL        string
	RequestTimeout time.Duration
	LogLevel       string
}

var _ Config = Static{}

func (s Static) GetAppName() string { return s.AppName }
func (s Static) GetDataDir() string { return s.DataDir }
func (s Static) GetEnv() string     { return s.Env }

func (s Static) GetBaseURL() string {
	url := s.BaseURL
	if url != "" && url[len(url)-1] != '/' {
		url += "/"
	}
	return url
}

func (s Static) GetRequestTimeout() time.Duration {
	if s.RequestTimeout <= 0 {
		return 15 * time.Second
	}
	return s.RequestTimeout
}

func (s Static) GetLogLevel() string { return s.LogLevel }
