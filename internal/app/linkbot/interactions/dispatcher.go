// Package interactions 把 Discord 的 interaction 分发到各个斜杠命令，生成要回给 Discord 的响应。
// 这里不碰 HTTP：验签和编解码都在 httpapi 里。
package interactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"

	"linkbot.local/internal/app/linkbot/currency"
	"linkbot.local/internal/app/linkbot/resolve"
	"linkbot.local/internal/app/linkbot/stats"
)

var ErrUnsupportedType = errors.New("unsupported interaction type")

const (
	msgUnknownCommand = "Command not recognized."
	msgInvalidAmount  = "Please provide a valid amount."
)

// Texts 是静态命令的回复内容，来自配置
type Texts struct {
	CreatorID      string
	SpreadsheetURL string
	RegisterURL    string
}

type Dispatcher struct {
	resolver  *resolve.Resolver
	converter currency.Converter
	texts     Texts
	collector stats.Collector
	now       func() time.Time
}

// NewDispatcher collector 为 nil 时不统计
func NewDispatcher(resolver *resolve.Resolver, converter currency.Converter, texts Texts, collector stats.Collector) *Dispatcher {
	if collector == nil {
		collector = stats.Discard{}
	}
	return &Dispatcher{
		resolver:  resolver,
		converter: converter,
		texts:     texts,
		collector: collector,
		now:       time.Now,
	}
}

// Handle 只认 PING 和 APPLICATION_COMMAND，其它类型返回 ErrUnsupportedType。
func (d *Dispatcher) Handle(ctx context.Context, i *discordgo.Interaction) (*discordgo.InteractionResponse, error) {
	switch i.Type {
	case discordgo.InteractionPing:
		return &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong}, nil
	case discordgo.InteractionApplicationCommand:
		// ApplicationCommandData 类型不对会 panic，必须先判断 Type
		return d.command(ctx, i), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, i.Type)
}

func (d *Dispatcher) command(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	data := i.ApplicationCommandData()
	event := stats.CommandEvent{
		Command:   data.Name,
		GuildID:   i.GuildID,
		HandledAt: d.now(),
	}
	defer func() { d.collector.Collect(event) }()

	slog.DebugContext(ctx, "interaction command", "command", data.Name, "guild_id", i.GuildID)

	switch data.Name {
	case "info":
		return reply("This bot was created by <@"+d.texts.CreatorID+">", false)
	case "spreadsheet":
		return reply("<"+d.texts.SpreadsheetURL+">", false)
	case "register":
		return reply("Register here <"+d.texts.RegisterURL+">", false)
	case "convert", "decode", "yupoo":
		link, ok := stringOption(data)
		if !ok {
			return missingOption(data.Name)
		}
		res := d.link(data.Name, link)
		event.Site, event.Outcome = res.Site.String(), res.Outcome.String()
		return reply(res.Text, true)
	case "yuan":
		if len(data.Options) == 0 || data.Options[0].Value == nil {
			return missingOption(data.Name)
		}
		amount, err := amountOption(data.Options[0].Value)
		if err != nil {
			return reply(msgInvalidAmount, true)
		}
		return reply(d.converter.Format(amount), true)
	}

	event.Command = "unknown"
	return reply(msgUnknownCommand, false)
}

func (d *Dispatcher) link(command, link string) resolve.Result {
	switch command {
	case "convert":
		return d.resolver.ConvertTaobaoResult(link)
	case "yupoo":
		return resolve.ConvertYupooResult(link)
	}
	return d.resolver.Resolve(link)
}

func reply(content string, ephemeral bool) *discordgo.InteractionResponse {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}

func missingOption(command string) *discordgo.InteractionResponse {
	return reply("Please provide a value for /"+command+".", true)
}

// stringOption 取第一个选项；空字符串当作没填
func stringOption(data discordgo.ApplicationCommandInteractionData) (string, bool) {
	if len(data.Options) == 0 {
		return "", false
	}
	s, ok := data.Options[0].Value.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// NUMBER 类型的选项解出来是 float64；老版本命令注册成 STRING 时是字符串
func amountOption(v any) (decimal.Decimal, error) {
	switch v := v.(type) {
	case float64:
		return currency.AmountFromFloat(v)
	case string:
		return currency.ParseAmount(v)
	}
	return decimal.Decimal{}, fmt.Errorf("%w: %T", currency.ErrInvalidAmount, v)
}
