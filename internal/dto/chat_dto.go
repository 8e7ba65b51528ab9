package dto

import (
	"time"

	"einvoice-assistant-be/pkg/store"
)

type CreateSessionRequest struct {
	Language    string   `json:"language"`
	ModelName   string   `json:"model_name"`
	Temperature *float64 `json:"temperature" validate:"omitempty,gte=0,lte=2"`
}

type QueryRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type SetLanguageRequest struct {
	Language string `json:"language" validate:"required"`
}

type ConfigureRequest struct {
	ModelName   string  `json:"model_name" validate:"required"`
	Temperature float64 `json:"temperature" validate:"gte=0,lte=2"`
	APIKey      string  `json:"api_key"`
}

type SetFiltersRequest struct {
	Table  string `json:"table"`
	Domain string `json:"domain"`
}

type TurnDTO struct {
	Id        string                   `json:"id"`
	Role      string                   `json:"role"`
	Kind      string                   `json:"kind"`
	Text      string                   `json:"text"`
	Language  string                   `json:"language"`
	Timestamp time.Time                `json:"timestamp"`
	Route     *store.Route             `json:"route,omitempty"`
	Chart     *store.VisualizationSpec `json:"chart,omitempty"`
}

type SessionResponse struct {
	Id                    string        `json:"id"`
	Language              string        `json:"language"`
	ActiveTable           string        `json:"active_table,omitempty"`
	ActiveDomain          string        `json:"active_domain,omitempty"`
	ModelName             string        `json:"model_name"`
	Temperature           float64       `json:"temperature"`
	Filters               store.Filters `json:"filters"`
	AwaitingClarification bool          `json:"awaiting_clarification"`
	Turns                 []TurnDTO     `json:"turns,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

type ClarificationOptionDTO struct {
	Index      int     `json:"index"`
	TableId    string  `json:"table_id"`
	DomainId   string  `json:"domain_id"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type ClarificationDTO struct {
	Prompt   string                   `json:"prompt"`
	Options  []ClarificationOptionDTO `json:"options"`
	Attempts int                      `json:"attempts"`
}

type QueryResponse struct {
	SessionId           string                   `json:"session_id"`
	ReplyText           string                   `json:"reply_text"`
	ChartSpec           *store.VisualizationSpec `json:"chart_spec,omitempty"`
	ClarificationPrompt *ClarificationDTO        `json:"clarification_prompt,omitempty"`
	Outcome             string                   `json:"outcome"`
	Route               *store.Route             `json:"route,omitempty"`
	Via                 string                   `json:"via,omitempty"`
	Turns               []TurnDTO                `json:"turns"`
}

type HistoryResponse struct {
	SessionId string    `json:"session_id"`
	Turns     []TurnDTO `json:"turns"`
}

type TaxonomyTableDTO struct {
	Id          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Domains     []string `json:"domains"`
}

type TaxonomyDomainDTO struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type TaxonomyResponse struct {
	Language string              `json:"language"`
	Tables   []TaxonomyTableDTO  `json:"tables"`
	Domains  []TaxonomyDomainDTO `json:"domains"`
}
