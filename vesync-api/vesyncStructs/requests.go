package vesyncStructs

// Session carries the account context the cloud expects in every bypass body.
type Session struct {
	Token       string
	AccountId   string
	TimeZone    string
	CountryCode string
	AppVersion  string
	Region      string
}

type AppConfigCategory struct {
	Category string `json:"category"`
	TestMode bool   `json:"testMode"`
	Version  string `json:"version"`
}

const (
	LinkagePath   = "/cloud/v1/app/linkage/getSupportedLinkageProperties"
	LinkageMethod = "getSupportedLinkageProperties"

	AppConfigPath   = "/cloud/v1/app/getAppConfigurationV2"
	AppConfigMethod = "getAppConfigurationV2"

	SupportedModelsCategory = "SupportedModelsV3"
)
