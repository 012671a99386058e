// Package discord wires the slash-command front-end: it registers the clash
// command, answers language autocomplete, and hands validated-later input to
// the lobby orchestrator. All side effects on CodinGame happen in the
// orchestrator; this package only maps interactions.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/cocbot/clashbot/catalog"
	"github.com/cocbot/clashbot/lobby"
)

const commandName = "clash"

// Bot owns the Discord session and dispatches interactions.
type Bot struct {
	session      *discordgo.Session
	orchestrator *lobby.Orchestrator
	modes        []string
	languages    *catalog.Catalog
	guildID      string

	// ctx outlives individual interactions so join-detection loops keep
	// running after the response is sent.
	ctx context.Context
}

// New builds a Bot over an unopened session.
func New(ctx context.Context, token string, guildID string, modes []string, languages *catalog.Catalog, orch *lobby.Orchestrator) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	b := &Bot{
		session:      session,
		orchestrator: orch,
		modes:        modes,
		languages:    languages,
		guildID:      guildID,
		ctx:          ctx,
	}
	session.AddHandler(b.handleInteraction)
	return b, nil
}

// Start opens the gateway connection and registers the command. Registration
// is guild-scoped when a guild id is configured (instant propagation during
// development), global otherwise.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	if _, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.guildID, buildCommand(b.modes)); err != nil {
		return fmt.Errorf("register %s command: %w", commandName, err)
	}
	slog.Info("discord bot ready",
		slog.String("user", b.session.State.User.Username),
		slog.Bool("guild_scoped", b.guildID != ""))
	return nil
}

// Close tears down the gateway connection.
func (b *Bot) Close() error {
	return b.session.Close()
}

// Ready reports whether the gateway session is established.
func (b *Bot) Ready() bool {
	return b.session.State != nil && b.session.State.User != nil
}

// buildCommand renders the clash command schema: a mode option with one
// choice per configured mode (lowercase display names) and a free-text
// language option with autocomplete.
func buildCommand(modes []string) *discordgo.ApplicationCommand {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(modes))
	for _, m := range modes {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  strings.ToLower(m),
			Value: m,
		})
	}
	return &discordgo.ApplicationCommand{
		Name:        commandName,
		Description: "starts a new clash of code lobby",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "mode",
				Description: "fastest, reverse, shortest or random",
				Required:    true,
				Choices:     choices,
			},
			{
				Type:         discordgo.ApplicationCommandOptionString,
				Name:         "language",
				Description:  "name of programming language or \"any\"",
				Required:     true,
				Autocomplete: true,
			},
		},
	}
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if i.ApplicationCommandData().Name == commandName {
			b.handleClash(s, i)
		}
	case discordgo.InteractionApplicationCommandAutocomplete:
		if i.ApplicationCommandData().Name == commandName {
			b.handleAutocomplete(s, i)
		}
	}
}

func (b *Bot) handleClash(s *discordgo.Session, i *discordgo.InteractionCreate) {
	// Acknowledge immediately; the create call can take longer than the
	// three seconds Discord allows for an initial response.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		slog.Warn("failed to defer interaction", slog.Any("err", err))
		return
	}
	req := requestFromOptions(i)
	pub := &interactionPublisher{session: s, interaction: i.Interaction}
	go b.orchestrator.Launch(b.ctx, req, pub)
}

func (b *Bot) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	partial := ""
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "language" && opt.Focused {
			partial = opt.StringValue()
		}
	}
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: autocompleteChoices(b.languages, partial),
		},
	}); err != nil {
		slog.Debug("autocomplete response failed", slog.Any("err", err))
	}
}

// autocompleteChoices maps catalog candidates to Discord choices, preserving
// catalog order. An empty candidate list yields an empty choice list.
func autocompleteChoices(languages *catalog.Catalog, partial string) []*discordgo.ApplicationCommandOptionChoice {
	candidates := languages.Complete(partial)
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(candidates))
	for _, c := range candidates {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: c, Value: c})
	}
	return choices
}

// requestFromOptions extracts the two string options and the requester
// mention from an interaction.
func requestFromOptions(i *discordgo.InteractionCreate) lobby.Request {
	req := lobby.Request{}
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "mode":
			req.ModeInput = opt.StringValue()
		case "language":
			req.LanguageInput = opt.StringValue()
		}
	}
	switch {
	case i.Member != nil && i.Member.User != nil:
		req.Requester = i.Member.User.Mention()
	case i.User != nil:
		req.Requester = i.User.Mention()
	}
	return req
}

// interactionPublisher edits and deletes the deferred command response.
type interactionPublisher struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
}

func (p *interactionPublisher) Publish(ctx context.Context, text string) error {
	_, err := p.session.InteractionResponseEdit(p.interaction, &discordgo.WebhookEdit{Content: &text})
	return err
}

func (p *interactionPublisher) Delete(ctx context.Context) error {
	return p.session.InteractionResponseDelete(p.interaction)
}
