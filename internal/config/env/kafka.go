package envconfig

import (
	"github.com/IBM/sarama"
	"github.com/caarlos0/env/v11"
)

type kafkaEnv struct {
	Brokers              []string `env:"KAFKA_BROKERS,required"`
	StockLowTopicName    string   `env:"STOCK_LOW_TOPIC_NAME,required"`
	JobFinishedTopicName string   `env:"JOB_FINISHED_TOPIC_NAME,required"`
	ConsumerGroupID      string   `env:"JOB_FINISHED_CONSUMER_GROUP_ID,required"`
}

type kafka struct {
	raw kafkaEnv
}

func NewKafkaConfig() (*kafka, error) {
	var raw kafkaEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	return &kafka{raw: raw}, nil
}

func (cfg *kafka) Brokers() []string        { return cfg.raw.Brokers }
func (cfg *kafka) StockLowTopic() string    { return cfg.raw.StockLowTopicName }
func (cfg *kafka) JobFinishedTopic() string { return cfg.raw.JobFinishedTopicName }
func (cfg *kafka) ConsumerGroupID() string  { return cfg.raw.ConsumerGroupID }

func (cfg *kafka) ProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V4_0_0_0
	config.Producer.Return.Successes = true

	return config
}

func (cfg *kafka) ConsumerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V4_0_0_0
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	return config
}
