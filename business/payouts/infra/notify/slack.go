// Package notify posts finished payouts to Slack.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/slack-go/slack"

	"github.com/cowprotocol/solver-rewards/business/payouts/app"
	"github.com/cowprotocol/solver-rewards/business/payouts/domain"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/logger"
)

// Config holds the Slack settings.
type Config struct {
	Token   string
	Channel string
	// APIURL overrides the Slack endpoint, for tests.
	APIURL string

	SafeShortName string
	Safe          common.Address
}

// Slack implements app.Notifier. The headline is posted to the channel and
// each detail block as a reply in its thread.
type Slack struct {
	api     *slack.Client
	channel string
	queue   string
	logger  logger.LoggerInterface
}

var _ app.Notifier = (*Slack)(nil)

// NewSlack creates a notifier posting to cfg.Channel.
func NewSlack(cfg Config, log logger.LoggerInterface) (*Slack, error) {
	if cfg.Token == "" || cfg.Channel == "" {
		return nil, fmt.Errorf("notify: slack token and channel are required")
	}
	var opts []slack.Option
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	return &Slack{
		api:     slack.New(cfg.Token, opts...),
		channel: cfg.Channel,
		queue:   QueueURL(cfg.SafeShortName, cfg.Safe),
		logger:  log,
	}, nil
}

// QueueURL is the Safe web app queue of safe.
func QueueURL(shortName string, safe common.Address) string {
	return fmt.Sprintf("https://app.safe.global/transactions/queue?safe=%s:%s", shortName, safe.Hex())
}

// Post implements app.Notifier.
func (s *Slack) Post(ctx context.Context, summary domain.Summary, p *domain.PeriodPayouts) error {
	headline := fmt.Sprintf(
		"Solver Rewards transaction for %s pending signatures.\nTo sign and execute, visit:\n%s\nMore details in thread",
		p.Period, s.queue,
	)
	_, ts, err := s.api.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(headline, false),
		slack.MsgOptionDisableMediaUnfurl(),
	)
	if err != nil {
		return apperror.External(apperror.CodeExportFailed, "slack post to "+s.channel, err)
	}

	for _, block := range threadBlocks(summary, p) {
		if _, _, err := s.api.PostMessageContext(ctx, s.channel,
			slack.MsgOptionText(fmt.Sprintf("%s:\n```%s```", block.title, block.body), false),
			slack.MsgOptionTS(ts),
			slack.MsgOptionDisableMediaUnfurl(),
		); err != nil {
			return apperror.External(apperror.CodeExportFailed, "slack thread reply "+block.title, err)
		}
	}

	s.logger.Info(ctx, "payout posted to slack", "channel", s.channel, "ts", ts)
	return nil
}

type block struct {
	title string
	body  string
}

func threadBlocks(summary domain.Summary, p *domain.PeriodPayouts) []block {
	blocks := []block{
		{"Totals", fmt.Sprintf("Total native token Funds needed: %s\nTotal COW Funds needed: %s",
			asset.FormatUnits(summary.NativeOutflow, asset.NativeDecimals).StringFixed(4),
			asset.FormatUnits(summary.CowOutflow, asset.NativeDecimals).StringFixed(4),
		)},
		{"Breakdown", summary.Breakdown()},
	}
	if len(p.Overdrafts) > 0 {
		lines := make([]string, 0, len(p.Overdrafts))
		for _, o := range p.Overdrafts {
			lines = append(lines, o.String())
		}
		blocks = append(blocks, block{"Overdrafts", strings.Join(lines, "\n")})
	}
	return blocks
}
