// Package commands 维护斜杠命令的定义，并通过 Discord REST 注册、列出、删除它们。
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

var ErrEmptyCommandID = errors.New("command id is required")

// Definitions 返回机器人支持的全部斜杠命令。每次调用都返回新的切片，调用方可以随意修改。
func Definitions() []*discordgo.ApplicationCommand {
	minAmount := 0.0
	return []*discordgo.ApplicationCommand{
		{Name: "info", Description: "Who made this bot"},
		{Name: "spreadsheet", Description: "Link to the finds spreadsheet"},
		{Name: "register", Description: "Sign-up link for the agent"},
		{
			Name:        "convert",
			Description: "Clean up a Taobao or Tmall link",
			Options:     []*discordgo.ApplicationCommandOption{linkOption("Taobao or Tmall link")},
		},
		{
			Name:        "decode",
			Description: "Turn an agent link back into the original store link",
			Options:     []*discordgo.ApplicationCommandOption{linkOption("CSSBuy, Oopbuy, JoyaBuy, CNFans or Hoobuy link")},
		},
		{
			Name:        "yupoo",
			Description: "Rewrite a Yupoo album link to the mirror domain",
			Options:     []*discordgo.ApplicationCommandOption{linkOption("Yupoo album link")},
		},
		{
			Name:        "yuan",
			Description: "Convert yuan to euro",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionNumber,
				Name:        "amount",
				Description: "Amount in CNY",
				Required:    true,
				MinValue:    &minAmount,
			}},
		},
	}
}

func linkOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "link",
		Description: description,
		Required:    true,
	}
}

// API 是 Registrar 用到的 Discord REST 子集，*discordgo.Session 满足它。
type API interface {
	ApplicationCommandCreate(appID string, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

var _ API = (*discordgo.Session)(nil)

// Registrar guildID 为空时操作全局命令（生效可能要几分钟），否则只作用于该服务器。
type Registrar struct {
	api     API
	appID   string
	guildID string
}

func NewRegistrar(api API, appID, guildID string) *Registrar {
	return &Registrar{api: api, appID: appID, guildID: guildID}
}

// Register 逐个创建（同名命令 Discord 会覆盖），遇到第一个错误就停下。
func (r *Registrar) Register(ctx context.Context) ([]*discordgo.ApplicationCommand, error) {
	defs := Definitions()
	created := make([]*discordgo.ApplicationCommand, 0, len(defs))
	for _, def := range defs {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		cmd, err := r.api.ApplicationCommandCreate(r.appID, r.guildID, def, discordgo.WithContext(ctx))
		if err != nil {
			return created, fmt.Errorf("register /%s: %w", def.Name, err)
		}
		slog.Info("command registered", "name", cmd.Name, "id", cmd.ID, "guild_id", r.guildID)
		created = append(created, cmd)
	}
	return created, nil
}

func (r *Registrar) List(ctx context.Context) ([]*discordgo.ApplicationCommand, error) {
	cmds, err := r.api.ApplicationCommands(r.appID, r.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	return cmds, nil
}

func (r *Registrar) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyCommandID
	}
	if err := r.api.ApplicationCommandDelete(r.appID, r.guildID, id, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete command %s: %w", id, err)
	}
	slog.Info("command deleted", "id", id, "guild_id", r.guildID)
	return nil
}
