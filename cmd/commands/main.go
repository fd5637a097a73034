// Command linkbot-commands 注册、列出、删除 linkbot 的斜杠命令。
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"linkbot.local/internal/app/linkbot/commands"
	"linkbot.local/internal/platform/config"
)

var (
	guildID string
	timeout time.Duration
	verbose bool
)

// newAPI 在测试里替换成假的 Discord
var newAPI = func(cfg config.Config) (commands.API, error) {
	s, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}
	return s, nil
}

var rootCmd = &cobra.Command{
	Use:           "linkbot-commands",
	Short:         "Manage linkbot slash commands",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create or overwrite every slash command",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistrar(cmd, func(ctx context.Context, r *commands.Registrar) error {
			created, err := r.Register(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %d commands\n", len(created))
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "List the registered slash commands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistrar(cmd, func(ctx context.Context, r *commands.Registrar) error {
			cmds, err := r.List(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
			for _, c := range cmds {
				fmt.Fprintf(tw, "%s\t/%s\t%s\n", c.ID, c.Name, c.Description)
			}
			return tw.Flush()
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one slash command by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistrar(cmd, func(ctx context.Context, r *commands.Registrar) error {
			if err := r.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		})
	},
}

func withRegistrar(cmd *cobra.Command, fn func(context.Context, *commands.Registrar) error) error {
	cfg := config.Load()
	if err := cfg.RequireBotAuth(); err != nil {
		return err
	}
	guild := cfg.DiscordGuildID
	if cmd.Flags().Changed("guild") {
		guild = guildID
	}

	api, err := newAPI(cfg)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	return fn(ctx, commands.NewRegistrar(api, cfg.DiscordApplicationID, guild))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&guildID, "guild", "", "Guild id (default: DISCORD_GUILD_ID, empty for global commands)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Discord API timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(registerCmd, showCmd, deleteCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
