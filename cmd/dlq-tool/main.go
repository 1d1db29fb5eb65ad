package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/twmb/franz-go/pkg/kgo"

	"pos-payment-system/internal/adapters/messaging/kafka"
	"pos-payment-system/internal/config"
	"pos-payment-system/internal/observability"
)

func main() {
	var (
		configPath string
		brokers    string
		dlqTopic   string
		cfg        *config.Config
		logger     = slog.Default()
	)

	rootCmd := &cobra.Command{
		Use:           "dlq-tool",
		Short:         "Inspect and replay dead-lettered payment events",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			logger = observability.SetupLogger(cfg.App.Env)
			if !cmd.Flags().Changed("brokers") && cfg.Kafka.BootstrapServers != "" {
				brokers = cfg.Kafka.BootstrapServers
			}
			if !cmd.Flags().Changed("dlq-topic") {
				dlqTopic = cfg.Kafka.DLQTopic
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&brokers, "brokers", "localhost:9092", "Comma-separated Kafka brokers")
	rootCmd.PersistentFlags().StringVar(&dlqTopic, "dlq-topic", "transactions.accepted.dlq", "DLQ topic name")

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "List dead-lettered messages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			logger.Info("Reading DLQ", "topic", dlqTopic, "limit", limit)

			client, err := kgo.NewClient(
				kgo.SeedBrokers(strings.Split(brokers, ",")...),
				kgo.ConsumeTopics(dlqTopic),
				kgo.FetchMaxWait(5*time.Second),
				kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
			)
			if err != nil {
				return fmt.Errorf("create consumer: %w", err)
			}
			defer client.Close()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PARTITION:OFFSET\tKEY\tERROR_TYPE\tORIGIN\tERROR_STRING")

			count := 0
			for count < limit {
				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				fetches := client.PollFetches(ctx)
				cancel()
				if fetches.IsClientClosed() || len(fetches.Records()) == 0 {
					break
				}
				fetches.EachRecord(func(r *kgo.Record) {
					if count >= limit {
						return
					}
					origin := fmt.Sprintf("%s/%s@%s",
						kafka.Header(r.Headers, kafka.HeaderOriginalTopic),
						kafka.Header(r.Headers, kafka.HeaderOriginalPartition),
						kafka.Header(r.Headers, kafka.HeaderOriginalOffset))
					fmt.Fprintf(w, "%d:%d\t%s\t%s\t%s\t%s\n", r.Partition, r.Offset, string(r.Key),
						kafka.Header(r.Headers, kafka.HeaderErrorType), origin,
						kafka.Header(r.Headers, kafka.HeaderErrorString))
					count++
				})
			}
			if count == 0 {
				logger.Info("DLQ is empty")
			}
			return w.Flush()
		},
	}
	viewCmd.Flags().Int("limit", 10, "Number of messages to show")

	retryCmd := &cobra.Command{
		Use:   "retry [partition:offset]",
		Short: "Send one DLQ message back to the payments topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			partition, offset, err := kafka.ParsePartitionOffset(args[0])
			if err != nil {
				return err
			}
			targetTopic, _ := cmd.Flags().GetString("target-topic")
			if targetTopic == "" {
				targetTopic = cfg.Kafka.Topic
			}
			logger.Info("Replaying message", "from", dlqTopic, "partition", partition, "offset", offset, "to", targetTopic)

			seeds := kgo.SeedBrokers(strings.Split(brokers, ",")...)
			producer, err := kgo.NewClient(seeds)
			if err != nil {
				return fmt.Errorf("create producer: %w", err)
			}
			defer producer.Close()

			consumer, err := kgo.NewClient(seeds,
				kgo.ConsumePartitions(map[string]map[int32]kgo.Offset{
					dlqTopic: {partition: kgo.NewOffset().At(offset)},
				}),
			)
			if err != nil {
				return fmt.Errorf("create consumer: %w", err)
			}
			defer consumer.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			fetches := consumer.PollRecords(ctx, 1)
			if err := fetches.Err(); err != nil {
				return fmt.Errorf("read message: %w", err)
			}
			records := fetches.Records()
			if len(records) == 0 || records[0].Offset != offset {
				return errors.New("no message at the given partition:offset")
			}

			original := records[0]
			replay := &kgo.Record{
				Topic: targetTopic,
				Key:   original.Key,
				Value: original.Value,
				Headers: []kgo.RecordHeader{
					{Key: kafka.HeaderEventType, Value: []byte(kafka.EventTypeTransactionAccepted)},
				},
			}
			if err := producer.ProduceSync(ctx, replay).FirstErr(); err != nil {
				return fmt.Errorf("replay message: %w", err)
			}
			logger.Info("Message replayed")
			return nil
		},
	}
	retryCmd.Flags().String("target-topic", "", "Topic to replay into (defaults to kafka.topic)")

	rootCmd.AddCommand(viewCmd, retryCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
