package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/wfunc/party-game/internal/errors"
	"github.com/wfunc/party-game/internal/game"
	"github.com/wfunc/party-game/internal/models"
	"github.com/wfunc/party-game/internal/repository"
	"go.uber.org/zap"
)

// 只读查询，不经过引擎
const (
	querySummary = "summary"
	queryHistory = "history"
	queryState   = "state"
	queryResults = "results"
	queryStats   = "stats"

	defaultHistoryLimit = 10
	defaultStatsDays    = 30
	maxLineSize         = 1 << 20
)

// Response 每行输入对应一行输出
type Response struct {
	OK      bool                `json:"ok"`
	Code    errors.ErrorCode    `json:"code,omitempty"`
	Error   string              `json:"error,omitempty"`
	State   *game.GameState     `json:"state,omitempty"`
	Summary *game.Summary       `json:"summary,omitempty"`
	History []game.HistoryEvent `json:"history,omitempty"`

	Results []*models.GameResult         `json:"results,omitempty"`
	Stats   *repository.ResultStatistics `json:"stats,omitempty"`
}

// Console 按行读取 JSON 动作并交给会话处理
type Console struct {
	session *game.Session
	results repository.GameResultRepository
	out     *json.Encoder
	logger  *zap.Logger
}

// NewConsole 创建控制台
func NewConsole(session *game.Session, w io.Writer, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{
		session: session,
		out:     json.NewEncoder(w),
		logger:  logger,
	}
}

// WithResults 启用历史结果查询
func (c *Console) WithResults(repo repository.GameResultRepository) *Console {
	c.results = repo
	return c
}

// Run 处理输入直到读完或 ctx 取消
func (c *Console) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := c.out.Encode(c.Execute(ctx, []byte(line))); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Execute 处理单行输入
func (c *Console) Execute(ctx context.Context, line []byte) Response {
	var probe struct {
		Type    string `json:"type"`
		Payload struct {
			Limit      int    `json:"limit"`
			SessionKey string `json:"sessionKey"`
			Days       int    `json:"days"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(line, &probe); err == nil {
		switch strings.ToLower(probe.Type) {
		case querySummary:
			summary := game.Summarize(c.session.State(), c.session.Rules())
			return Response{OK: true, Summary: &summary}
		case queryHistory:
			limit := probe.Payload.Limit
			if limit <= 0 {
				limit = defaultHistoryLimit
			}
			return Response{OK: true, History: game.RecentHistory(c.session.State(), limit)}
		case queryState:
			return Response{OK: true, State: c.session.State()}
		case queryResults:
			return c.listResults(ctx, probe.Payload.SessionKey, probe.Payload.Limit)
		case queryStats:
			return c.statistics(ctx, probe.Payload.Days)
		}
	}

	action, err := game.DecodeAction(line)
	if err != nil {
		return c.fail(err, nil)
	}

	state, err := c.session.Handle(ctx, action)
	if err != nil {
		return c.fail(err, state)
	}
	return Response{OK: true, State: state}
}

// listResults 最近结束的游戏，指定会话键时只查该会话
func (c *Console) listResults(ctx context.Context, sessionKey string, limit int) Response {
	if c.results == nil {
		return c.fail(errors.New(errors.ErrDatabaseConnect, "未启用结果存档"), nil)
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var (
		results []*models.GameResult
		err     error
	)
	p := repository.NewPagination(1, limit)
	if sessionKey != "" {
		results, err = c.results.FindBySessionKey(ctx, sessionKey, p)
	} else {
		results, err = c.results.ListRecent(ctx, p)
	}
	if err != nil {
		return c.fail(errors.Wrap(err, errors.ErrDatabaseQuery, "查询游戏结果失败"), nil)
	}
	return Response{OK: true, Results: results}
}

// statistics 最近若干天的结果统计
func (c *Console) statistics(ctx context.Context, days int) Response {
	if c.results == nil {
		return c.fail(errors.New(errors.ErrDatabaseConnect, "未启用结果存档"), nil)
	}
	if days <= 0 {
		days = defaultStatsDays
	}

	now := time.Now()
	stats, err := c.results.GetStatistics(ctx, now.AddDate(0, 0, -days), now)
	if err != nil {
		return c.fail(errors.Wrap(err, errors.ErrDatabaseQuery, "统计游戏结果失败"), nil)
	}
	return Response{OK: true, Stats: stats}
}

func (c *Console) fail(err error, state *game.GameState) Response {
	c.logger.Warn("动作被拒绝", zap.Error(err))
	return Response{
		Code:  errors.GetCode(err),
		Error: err.Error(),
		State: state,
	}
}
