package config

import (
	"strings"
	"unicode"
)

const EnvPrefix = "QSURVEY_"

// StoreParams are the connection parameters of the document store.
// Only DatabaseURL and ProjectID are used by the service; the rest are
// carried for the setup screen.
type StoreParams struct {
	APIKey            string `json:"apiKey"`
	AuthDomain        string `json:"authDomain"`
	DatabaseURL       string `json:"databaseUrl"`
	ProjectID         string `json:"projectId"`
	StorageBucket     string `json:"storageBucket"`
	MessagingSenderID string `json:"messagingSenderId"`
	AppID             string `json:"appId"`
	MeasurementID     string `json:"measurementId"`
}

type Param struct {
	Name  string `json:"name"`
	Env   string `json:"env"`
	Value string `json:"value"`
}

// Params lists the parameters in their canonical order.
func (p StoreParams) Params() []Param {
	pairs := []struct {
		name  string
		value string
	}{
		{"apiKey", p.APIKey},
		{"authDomain", p.AuthDomain},
		{"databaseUrl", p.DatabaseURL},
		{"projectId", p.ProjectID},
		{"storageBucket", p.StorageBucket},
		{"messagingSenderId", p.MessagingSenderID},
		{"appId", p.AppID},
		{"measurementId", p.MeasurementID},
	}

	params := make([]Param, len(pairs))
	for i, pair := range pairs {
		params[i] = Param{Name: pair.name, Env: EnvName(pair.name), Value: pair.value}
	}
	return params
}

// EnvText renders KEY=value lines for the parameters that are set.
func (p StoreParams) EnvText() string {
	var sb strings.Builder
	for _, param := range p.Params() {
		if param.Value == "" {
			continue
		}
		sb.WriteString(param.Env)
		sb.WriteByte('=')
		sb.WriteString(param.Value)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Missing returns the names of the parameters that are not set.
func (p StoreParams) Missing() []string {
	missing := []string{}
	for _, param := range p.Params() {
		if param.Value == "" {
			missing = append(missing, param.Name)
		}
	}
	return missing
}

func LoadStoreParams(getenv func(string) string) StoreParams {
	return StoreParams{
		APIKey:            getenv(EnvName("apiKey")),
		AuthDomain:        getenv(EnvName("authDomain")),
		DatabaseURL:       getenv(EnvName("databaseUrl")),
		ProjectID:         getenv(EnvName("projectId")),
		StorageBucket:     getenv(EnvName("storageBucket")),
		MessagingSenderID: getenv(EnvName("messagingSenderId")),
		AppID:             getenv(EnvName("appId")),
		MeasurementID:     getenv(EnvName("measurementId")),
	}
}

// EnvName turns a camelCase parameter name into its variable name, e.g.
// messagingSenderId becomes QSURVEY_MESSAGING_SENDER_ID.
func EnvName(name string) string {
	var sb strings.Builder
	sb.WriteString(EnvPrefix)
	for i, r := range name {
		if unicode.IsUpper(r) && i > 0 {
			sb.WriteByte('_')
		}
		sb.WriteRune(unicode.ToUpper(r))
	}
	return sb.String()
}
