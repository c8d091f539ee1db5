package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultCrtShDSN = "postgres://guest@crt.sh:5432/certwatch?sslmode=disable&connect_timeout=10"

// Publicly shared Facebook app tokens, used when no token is configured.
var publicFacebookTokens = []string{
	"688177841647920|RAeNYr8jwFXGH9v-IhGv4tfHMpU",
	"772592906530976|CNkO7OxM6ssQgOBLCraC_dhKE7M",
	"1004691886529013|iiUStPqcXCELcwv89-SZQSqqFNY",
	"2106186849683294|beVoPBtLp3IWjpLsnF6Mpzo1gVM",
	"2095886140707025|WkO8gTgPtwmnNZL3NQ74z92DA-k",
	"434231614102088|pLJSVc9iOqxrG6NO7DDPrlkQ1qE",
	"431009107520610|AX8VNunXMng-ainHO8Ke0sdeMJI",
	"893300687707948|KW_O07biKRaW5fpNqeAeSrMU1W8",
	"2477772448946546|BXn-h2zX6qb4WsFvtOywrNsDixo",
	"509488472952865|kONi75jYL_KQ_6J1CHPQ1MH4x_U",
}

type Config struct {
	// Credentials
	FacebookToken   string   `yaml:"facebook_token"`
	FacebookTokens  []string `yaml:"facebook_tokens"` // Fallback pool when FacebookToken is empty
	SpyseToken      string   `yaml:"spyse_token"`
	VirusTotalToken string   `yaml:"virustotal_token"`

	Proxy          string `yaml:"proxy"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	CrtShDSN       string `yaml:"crtsh_dsn"`
}

func Default() *Config {
	return &Config{
		FacebookTokens: append([]string(nil), publicFacebookTokens...),
		TimeoutSeconds: 20,
		CrtShDSN:       DefaultCrtShDSN,
	}
}

// Load reads the YAML file at path (if any) over the defaults, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("can't read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("can't parse config file %s: %w", path, err)
		}
	}

	cfg.FacebookToken = getEnv("findomain_fb_token", cfg.FacebookToken)
	cfg.SpyseToken = getEnv("findomain_spyse_token", cfg.SpyseToken)
	cfg.VirusTotalToken = getEnv("findomain_virustotal_token", cfg.VirusTotalToken)
	cfg.Proxy = getEnv("VOIDENUM_PROXY", cfg.Proxy)

	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 20
	}
	if cfg.CrtShDSN == "" {
		cfg.CrtShDSN = DefaultCrtShDSN
	}
	if len(cfg.FacebookTokens) == 0 {
		cfg.FacebookTokens = append([]string(nil), publicFacebookTokens...)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
