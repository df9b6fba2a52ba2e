// Command evaluate scores the loaded model against every stored observation,
// appends the MAE to the metrics log and pushes it to the Pushgateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/di"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/usecase"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/config"
	applogger "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/logger"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	noPush := flag.Bool("no-push", false, "skip the Pushgateway")
	timeout := flag.Duration("timeout", time.Minute, "overall deadline")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	l, err := di.ProvideLogger(cfg, nil)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer l.Close()

	model, err := di.ProvideModel(cfg)
	if err != nil {
		log.Fatalf("model: %v", err)
	}
	ch, err := di.ProvideClickHouseClient(cfg)
	if err != nil {
		log.Fatalf("clickhouse: %v", err)
	}
	if ch != nil {
		defer ch.Close()
	}
	table, err := di.ProvideObservationTable(cfg, ch)
	if err != nil {
		log.Fatalf("observation table: %v", err)
	}
	defer table.Close()

	var pusher usecase.GaugePusher
	if !*noPush && cfg.Evaluation.PushgatewayAddr != "" {
		pusher = metrics.NewGaugePusher(cfg.Evaluation.PushgatewayAddr, cfg.Evaluation.Job)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	res, err := usecase.NewEvaluator(model, table, cfg.Evaluation.MetricsLog, pusher, l).Evaluate(ctx)
	if err != nil {
		l.Error("evaluation failed", applogger.Error(err))
		l.Close()
		os.Exit(1)
	}
	fmt.Printf("model=%s rows=%d MAE=%.2f\n", res.ModelVersion, res.Rows, res.MAE)
}
