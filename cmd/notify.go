package cmd

import (
	"fmt"
	"time"

	"github.com/jayteealao/gitsync/internal/git"
	"github.com/jayteealao/gitsync/internal/logging"
	"github.com/jayteealao/gitsync/internal/notify"
	"github.com/jayteealao/gitsync/internal/state"
	"github.com/spf13/viper"
)

// newNotifyManager registers the backends configured under notify.*.
func newNotifyManager(logger logging.Logger) *notify.Manager {
	mgr := notify.NewManager()

	if url := viper.GetString("notify.webhook-url"); url != "" {
		mgr.Register(notify.NewWebhookNotifier(url, viper.GetStringMapString("notify.webhook-headers")))
		logger.Debug("registered notifier", "backend", "webhook")
	}

	if url := viper.GetString("notify.discord-webhook"); url != "" {
		mgr.Register(notify.NewDiscordNotifier(url, "gitsync"))
		logger.Debug("registered notifier", "backend", "discord")
	}

	if url := viper.GetString("notify.slack-webhook"); url != "" {
		mgr.Register(notify.NewSlackNotifier(url, viper.GetString("notify.slack-channel"), "gitsync"))
		logger.Debug("registered notifier", "backend", "slack")
	}

	return mgr
}

// syncEvent describes a finished sync for the notifiers.
func syncEvent(rec *state.Sync) notify.Event {
	event := notify.Event{
		Type:       notify.EventSyncSucceeded,
		Repo:       rec.RepoPath,
		Operation:  rec.Operation,
		Invocation: rec.Invocation,
		Timestamp:  time.Now(),
		Details:    map[string]string{},
	}

	if rec.Status != state.StatusSucceeded {
		event.Type = notify.EventSyncFailed
		event.Message = rec.ErrorMessage
	}

	if rec.ID != "" {
		event.Details["Sync"] = rec.ID
	}
	if rec.HeadBefore != "" || rec.HeadAfter != "" {
		event.Details["Head"] = fmt.Sprintf("%s → %s", orDash(git.ShortSHA(rec.HeadBefore)), orDash(git.ShortSHA(rec.HeadAfter)))
	}
	if rec.ExitCode != nil && *rec.ExitCode != 0 {
		event.Details["Exit code"] = fmt.Sprintf("%d", *rec.ExitCode)
	}

	return event
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
