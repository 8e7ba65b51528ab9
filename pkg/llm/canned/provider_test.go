package canned

import (
	"context"
	"strings"
	"testing"

	"einvoice-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	p, err := NewProvider()
	require.NoError(t, err)
	ctx := context.Background()

	en, err := p.Generate(ctx, "q",
		llm.WithMetadata(llm.MetaTable, "invoices"),
		llm.WithMetadata(llm.MetaDomain, "fraud_detection"),
		llm.WithMetadata(llm.MetaLanguage, "en"))
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(en), "anomal")

	ar, err := p.Generate(ctx, "q",
		llm.WithMetadata(llm.MetaTable, "invoices"),
		llm.WithMetadata(llm.MetaDomain, "fraud_detection"),
		llm.WithMetadata(llm.MetaLanguage, "ar"))
	require.NoError(t, err)
	assert.NotEqual(t, en, ar)

	again, _ := p.Generate(ctx, "other question",
		llm.WithMetadata(llm.MetaTable, "invoices"),
		llm.WithMetadata(llm.MetaDomain, "fraud_detection"),
		llm.WithMetadata(llm.MetaLanguage, "en"))
	assert.Equal(t, en, again)

	def, err := p.Generate(ctx, "q", llm.WithMetadata(llm.MetaTable, "items"), llm.WithMetadata(llm.MetaDomain, "revenue_analysis"))
	require.NoError(t, err)
	assert.Equal(t, "I don't have specific information about that in the e-invoice data.", def)
}

func TestChatCancelled(t *testing.T) {
	p, err := NewProvider()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Generate(ctx, "q")
	require.Error(t, err)
}
