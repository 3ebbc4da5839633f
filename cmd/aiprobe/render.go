package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/metalagman/aiprobe/internal/probe"
)

func markdownRenderer() (probe.ReplyRenderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, fmt.Errorf("init markdown renderer: %w", err)
	}
	return r.Render, nil
}
