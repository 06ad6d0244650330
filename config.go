package blogfront

import "github.com/goliatone/go-blogfront/internal/runtimeconfig"

var (
	ErrAPIBaseURLRequired         = runtimeconfig.ErrAPIBaseURLRequired
	ErrAPIBaseURLInvalid          = runtimeconfig.ErrAPIBaseURLInvalid
	ErrAPITimeoutInvalid          = runtimeconfig.ErrAPITimeoutInvalid
	ErrRetryAttemptsInvalid       = runtimeconfig.ErrRetryAttemptsInvalid
	ErrMarkdownFeatureRequired    = runtimeconfig.ErrMarkdownFeatureRequired
	ErrMarkdownContentDirRequired = runtimeconfig.ErrMarkdownContentDirRequired
	ErrEmbedHostInvalid           = runtimeconfig.ErrEmbedHostInvalid
	ErrHTTPAddrRequired           = runtimeconfig.ErrHTTPAddrRequired
	ErrHTTPBasePathInvalid        = runtimeconfig.ErrHTTPBasePathInvalid
	ErrLoggingProviderRequired    = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown     = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid        = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid       = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config               = runtimeconfig.Config
	APIConfig            = runtimeconfig.APIConfig
	RetryConfig          = runtimeconfig.RetryConfig
	MarkdownConfig       = runtimeconfig.MarkdownConfig
	MarkdownParserConfig = runtimeconfig.MarkdownParserConfig
	HTTPConfig           = runtimeconfig.HTTPConfig
	LoggingConfig        = runtimeconfig.LoggingConfig
	Features             = runtimeconfig.Features
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// ConfigFromEnv applies BLOG_* environment variables on top of DefaultConfig.
func ConfigFromEnv(lookup runtimeconfig.Lookup) (Config, error) {
	return runtimeconfig.FromEnv(lookup)
}
