// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     console
// Description: Styles for the local survey console
// Author:      Naeem Akhtar
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package console

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	// Primary colors
	ColorPrimary   = lipgloss.Color("#0EA5E9") // Sky
	ColorSecondary = lipgloss.Color("#8B5CF6") // Violet
	ColorAccent    = lipgloss.Color("#F59E0B") // Amber
	ColorSuccess   = lipgloss.Color("#10B981") // Emerald
	ColorWarning   = lipgloss.Color("#F59E0B") // Amber
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorDimmed    = lipgloss.Color("#374151") // Dark Gray

	// Background colors
	ColorBg         = lipgloss.Color("#0F172A") // Slate 900
	ColorBgPanel    = lipgloss.Color("#1E293B") // Slate 800
	ColorBgQuestion = lipgloss.Color("#164E63") // Question bubble background
	ColorBgAnswer   = lipgloss.Color("#1E293B") // Answer line background

	// Text colors
	ColorText      = lipgloss.Color("#F8FAFC") // Slate 50
	ColorTextMuted = lipgloss.Color("#94A3B8") // Slate 400
	ColorTextDim   = lipgloss.Color("#64748B") // Slate 500
)

// Header styles
var (
	LogoStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	SubHeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)

	TitlePanelStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 2).
			MarginBottom(1)
)

// Survey flow styles
var (
	GreetingStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true).
			Padding(0, 2).
			MarginBottom(1)

	QuestionStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorBgQuestion).
			Padding(1, 2).
			MarginBottom(1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary)

	QuestionNumberStyle = lipgloss.NewStyle().
				Foreground(ColorSecondary).
				Bold(true)

	FeedbackStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Italic(true).
			Padding(0, 2)

	ListeningStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			Padding(0, 2)

	InterimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim).
			Italic(true).
			Padding(0, 2)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Padding(0, 2).
			MarginBottom(1)
)

// Answer styles keyed by classification result
var (
	AnswerYesStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	AnswerNoStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	AnswerOtherStyle = lipgloss.NewStyle().
				Foreground(ColorWarning)

	HistoryLineStyle = lipgloss.NewStyle().
				Foreground(ColorTextMuted).
				Padding(0, 2)
)

// Input styles
var (
	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDimmed).
			Padding(0, 1)

	FocusedInputStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary).
				Padding(0, 1)
)

// Summary styles
var (
	SummaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(ColorSuccess).
			Padding(1, 3).
			MarginTop(1)

	SummaryTitleStyle = lipgloss.NewStyle().
				Foreground(ColorSuccess).
				Bold(true)

	SummaryCountStyle = lipgloss.NewStyle().
				Foreground(ColorText).
				Bold(true)
)

// Status bar and help styles
var (
	StatusBarStyle = lipgloss.NewStyle().
			Background(ColorBgPanel).
			Foreground(ColorText).
			Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			MarginTop(1)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary)
)

// Icons
const (
	IconMic      = "🎤 "
	IconKeyboard = "⌨ "
	IconYes      = "✓ "
	IconNo       = "✗ "
	IconOther    = "? "
	IconQuestion = "❯ "
	IconDone     = "★ "
)

// Logo
const Logo = "VoiceAgent Survey Console"

// RenderKeyHint renders a keyboard shortcut hint
func RenderKeyHint(key, description string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(description)
}

// RenderAnswer renders an answer value in its result color
func RenderAnswer(answer string) string {
	switch answer {
	case "yes":
		return AnswerYesStyle.Render(IconYes + "yes")
	case "no":
		return AnswerNoStyle.Render(IconNo + "no")
	default:
		return AnswerOtherStyle.Render(IconOther + answer)
	}
}
