// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"deskbot-go/internal/config"
	"deskbot-go/pkg/database"
	"deskbot-go/pkg/events"
	"deskbot-go/pkg/log"

	"github.com/segmentio/kafka-go"
)

// IndexProcessor 定义了能够处理文档索引任务的服务接口。
// 消费者通过该接口与具体的索引实现解耦。
type IndexProcessor interface {
	Process(ctx context.Context, task events.DocumentIndexTask) error
}

var producer *kafka.Writer

// InitProducer 初始化 Kafka 生产者。
func InitProducer(cfg config.KafkaConfig) {
	producer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
}

// Produce 将一个事件写入主题。
func Produce(ctx context.Context, ev events.Envelope) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return producer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Type),
		Value: payload,
	})
}

// StartConsumer 启动一个 Kafka 消费者循环。
// 文档索引事件交给 processor 处理；登录等审计事件仅记录后提交。
func StartConsumer(cfg config.KafkaConfig, processor IndexProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  "deskbot-consumer",
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(context.Background())
		if err != nil {
			log.Error("从 Kafka 读取消息失败", err)
			break
		}

		var ev events.Envelope
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			commit(r, m)
			continue
		}

		switch {
		case ev.Type == events.TypeDocumentIndex && ev.DocumentIndex != nil:
			handleIndexTask(r, m, processor, *ev.DocumentIndex)
		case ev.Type == events.TypeUserLogin && ev.UserLogin != nil:
			log.Infow("用户登录事件",
				"userId", ev.UserLogin.UserID,
				"username", ev.UserLogin.Username,
				"clientIP", ev.UserLogin.ClientIP,
			)
			commit(r, m)
		default:
			log.Warnf("忽略未知事件类型: %s", ev.Type)
			commit(r, m)
		}
	}

	if err := r.Close(); err != nil {
		log.Fatalf("关闭 Kafka 消费者失败: %v", err)
	}
}

// handleIndexTask 处理文档索引任务，失败时用 Redis 计数控制重试次数。
func handleIndexTask(r *kafka.Reader, m kafka.Message, processor IndexProcessor, task events.DocumentIndexTask) {
	log.Infof("开始处理文档索引任务: documentID=%d, filename=%s", task.DocumentID, task.Filename)

	if err := processor.Process(context.Background(), task); err != nil {
		log.Errorf("文档索引任务失败: documentID=%d, error: %v", task.DocumentID, err)
		attemptsKey := fmt.Sprintf("kafka:attempts:doc:%d", task.DocumentID)
		attempts, incErr := database.RDB.Incr(context.Background(), attemptsKey).Result()
		if incErr != nil {
			// Redis 异常时保守处理：不提交 offset，让 Kafka 重试
			return
		}
		_ = database.RDB.Expire(context.Background(), attemptsKey, 24*time.Hour).Err()
		if attempts >= 3 {
			log.Errorf("文档索引任务多次失败(>=3)，提交 offset 终止重试: documentID=%d", task.DocumentID)
			commit(r, m)
		}
		// attempts < 3 时不提交 offset，让 Kafka 自动重试
		return
	}

	log.Infof("文档索引任务处理成功: documentID=%d", task.DocumentID)
	_ = database.RDB.Del(context.Background(), fmt.Sprintf("kafka:attempts:doc:%d", task.DocumentID)).Err()
	commit(r, m)
}

func commit(r *kafka.Reader, m kafka.Message) {
	if err := r.CommitMessages(context.Background(), m); err != nil {
		log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
	}
}
