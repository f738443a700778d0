package event

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/wfunc/monopoly-game/internal/config"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/logger"
	"go.uber.org/zap"
)

// NatsPublisher 将事件发布到 NATS，主题为 <prefix>.<gameID>.<type>
type NatsPublisher struct {
	conn   *nats.Conn
	prefix string
	log    *zap.Logger
}

// ConnectNats 按配置连接 NATS
func ConnectNats(cfg config.BrokerConfig, log *zap.Logger) (*NatsPublisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS连接断开", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("NATS重新连接", zap.String("url", c.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrBrokerConnect, "连接 %s 失败", cfg.URL)
	}

	log.Info("NATS连接成功", zap.String("url", conn.ConnectedUrl()))
	return NewNatsPublisher(conn, cfg.SubjectPrefix, log), nil
}

// NewNatsPublisher 使用已有连接创建发布器
func NewNatsPublisher(conn *nats.Conn, prefix string, log *zap.Logger) *NatsPublisher {
	if prefix == "" {
		prefix = "monopoly.game"
	}
	return &NatsPublisher{conn: conn, prefix: prefix, log: log}
}

// Subject 事件主题
func (p *NatsPublisher) Subject(evt Event) string {
	return Subject(p.prefix, evt)
}

// Subject 计算事件主题
func Subject(prefix string, evt Event) string {
	return fmt.Sprintf("%s.%d.%s", prefix, evt.GameID, evt.Type)
}

// Publish 实现 Publisher
func (p *NatsPublisher) Publish(_ context.Context, evt Event) error {
	payload, err := evt.Marshal()
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrMessageFormat)
	}

	subject := p.Subject(evt)
	err = p.conn.Publish(subject, payload)
	logger.LogBrokerMessage(subject, err)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrBrokerPublish, subject)
	}
	return nil
}

// Close 刷新缓冲并关闭连接
func (p *NatsPublisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.log.Warn("NATS关闭失败", zap.Error(err))
		p.conn.Close()
	}
}
