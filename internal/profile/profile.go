// Package profile holds the validated runtime configuration.
package profile

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Version is reported by the root endpoint.
const Version = "0.3.0"

// Profile is the runtime configuration. Every external collaborator is
// optional; missing settings disable features instead of failing startup.
type Profile struct {
	// Addr is the bind address, empty for all interfaces.
	Addr string
	// Port is the HTTP listen port.
	Port int
	// Data is the directory for locally persisted state (embedded vector
	// index).
	Data string

	// Driver selects the conversation store dialect: sqlite, postgres or
	// mysql. DSN empty means history is disabled.
	Driver string
	DSN    string

	// OpenAI settings. An empty key disables summarization, question
	// answering and retrieval.
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	ChatModel      string
	EmbeddingModel string

	// Pinecone settings. When unset, the embedded index is used instead.
	PineconeAPIKey string
	PineconeHost   string
}

// GetProfile reads the profile from viper and validates it.
func GetProfile(vp *viper.Viper) (*Profile, error) {
	p := &Profile{
		Addr:           vp.GetString("addr"),
		Port:           vp.GetInt("port"),
		Data:           vp.GetString("data"),
		Driver:         vp.GetString("driver"),
		DSN:            vp.GetString("dsn"),
		OpenAIAPIKey:   vp.GetString("openai-api-key"),
		OpenAIBaseURL:  vp.GetString("openai-base-url"),
		ChatModel:      vp.GetString("chat-model"),
		EmbeddingModel: vp.GetString("embedding-model"),
		PineconeAPIKey: vp.GetString("pinecone-api-key"),
		PineconeHost:   vp.GetString("pinecone-host"),
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Profile) validate() error {
	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}
	switch p.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return errors.Errorf("unknown database driver %q", p.Driver)
	}
	if p.Data == "" {
		p.Data = "."
	}
	return nil
}
