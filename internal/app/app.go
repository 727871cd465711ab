package app

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/valentinpelus/kubetriage/internal/collector"
	"github.com/valentinpelus/kubetriage/internal/config"
	"github.com/valentinpelus/kubetriage/internal/handler"
	"github.com/valentinpelus/kubetriage/internal/logging"
	"github.com/valentinpelus/kubetriage/internal/processor"
	"github.com/valentinpelus/kubetriage/internal/publish"
	"github.com/valentinpelus/kubetriage/internal/server"
	"github.com/valentinpelus/kubetriage/internal/triage"
	"github.com/valentinpelus/kubetriage/pkg/issues"
	"github.com/valentinpelus/kubetriage/pkg/kubernetes"
	"github.com/valentinpelus/kubetriage/pkg/llm"
	"github.com/valentinpelus/kubetriage/pkg/loki"
	"github.com/valentinpelus/kubetriage/pkg/prometheus"
	"github.com/valentinpelus/kubetriage/pkg/slack"
	"github.com/valentinpelus/kubetriage/pkg/storage"
)

// App holds all application dependencies
type App struct {
	Config   *config.Config
	Provider llm.Provider
	Server   *server.Server
}

// New initializes a new application with all dependencies. The cluster
// adapter is required; every other backend joins only when configured.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	clientset, err := kubernetes.GetClientset()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize kubernetes client: %w", err)
	}

	collectors := []collector.Collector{
		collector.NewKubeCollector(kubernetes.NewClient(clientset)),
	}
	if cfg.PrometheusURL != "" {
		promClient, err := prometheus.NewClient(cfg.PrometheusURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize prometheus client: %w", err)
		}
		collectors = append(collectors, collector.NewPrometheusCollector(promClient))
	}
	if cfg.LokiURL != "" {
		collectors = append(collectors, collector.NewLokiCollector(loki.NewClient(cfg.LokiURL)))
	}
	aggregator := collector.NewAggregator(logging.New("collector"), collectors...)

	provider := llm.NewBedrockProvider(awsCfg, cfg.BedrockModelID)
	driver := triage.NewDriver(provider, logging.New("triage"))

	var archiver publish.Archiver
	if cfg.S3Bucket != "" {
		archiver = storage.NewArchiver(awsCfg, cfg.S3Bucket)
	}

	var issueCreator publish.IssueCreator
	if cfg.GitHubToken != "" && cfg.GitHubRepo != "" {
		client, err := issues.NewClient(cfg.GitHubToken, cfg.GitHubRepo)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize github client: %w", err)
		}
		issueCreator = client
	}

	var notifier publish.Notifier
	if cfg.SlackWebhookURL != "" {
		notifier = slack.NewClient(cfg.SlackWebhookURL)
	}

	publisher := publish.NewPublisher(archiver, issueCreator, notifier, logging.New("publish"))
	proc := processor.NewIncidentProcessor(aggregator, driver, publisher, logging.New("processor"))
	alertHandler := handler.NewAlertHandler(proc, logging.New("handler"))
	srv := server.New(cfg.Port, cfg.WebhookAuthToken, alertHandler, logging.New("server"))

	return &App{
		Config:   cfg,
		Provider: provider,
		Server:   srv,
	}, nil
}

// LogStartupInfo logs application startup information
func (a *App) LogStartupInfo() {
	logger := logging.New("app")

	logger.Info("starting kubetriage",
		slog.Int("port", a.Config.Port),
		slog.String("provider", a.Provider.Name()),
	)
	logger.Info("evidence sources",
		slog.Bool("prometheus", a.Config.PrometheusURL != ""),
		slog.Bool("loki", a.Config.LokiURL != ""),
	)
	logger.Info("destinations",
		slog.Bool("s3", a.Config.S3Bucket != ""),
		slog.Bool("github", a.Config.GitHubToken != "" && a.Config.GitHubRepo != ""),
		slog.Bool("slack", a.Config.SlackWebhookURL != ""),
	)

	if a.Config.WebhookAuthToken != "" {
		logger.Info("webhook authentication enabled")
	} else {
		logger.Warn("webhook authentication disabled, anyone can send alerts")
	}
}
