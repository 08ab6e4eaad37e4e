package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/address-cleaner/app/models"
	"github.com/address-cleaner/app/services"
	"github.com/address-cleaner/internal/bootstrap"
	"github.com/address-cleaner/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const maxLineSize = 1 << 20

func cleanCmd(root *rootOptions) *cobra.Command {
	var input, output, format string
	var workers int

	c := &cobra.Command{
		Use:   "clean",
		Short: "Làm sạch danh sách địa chỉ, mỗi dòng một địa chỉ",
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch format {
			case services.FormatJSON, services.FormatNDJSON, services.FormatCSV:
			default:
				return fmt.Errorf("format không hỗ trợ: %s", format)
			}

			cfg, logger, err := root.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if workers <= 0 {
				workers = cfg.BatchWorkers
			}

			in, closeIn, err := openInput(input)
			if err != nil {
				return err
			}
			addresses, err := readAddresses(in)
			closeIn()
			if err != nil {
				return err
			}
			logger.Info("Đã đọc địa chỉ", zap.Int("count", len(addresses)))

			cleaner, err := bootstrap.NewCleaner(cfg, logger, nil)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			results, err := run(ctx, cleaner, addresses, workers, logger)
			if err != nil {
				logger.Warn("Dừng giữa chừng, chỉ ghi các địa chỉ đã xử lý", zap.Error(err))
			}

			out, closeOut, err := openOutput(output)
			if err != nil {
				return err
			}
			defer closeOut()
			return services.WriteResults(out, format, results)
		},
	}

	c.Flags().StringVarP(&input, "input", "i", "-", "file đầu vào, - là stdin")
	c.Flags().StringVarP(&output, "output", "o", "-", "file kết quả, - là stdout")
	c.Flags().StringVarP(&format, "format", "f", services.FormatNDJSON, "json|ndjson|csv")
	c.Flags().IntVarP(&workers, "workers", "w", 0, "số địa chỉ xử lý song song (mặc định theo cấu hình)")
	return c
}

func run(ctx context.Context, r pipeline.Resolver, addresses []string, workers int, logger *zap.Logger) ([]*models.ResolvedAddress, error) {
	startTime := time.Now()
	var done atomic.Int64
	total := len(addresses)

	// Địa chỉ hoàn tất sau khi ctx bị huỷ chỉ là kết quả dở dang, bỏ khỏi output
	var mu sync.Mutex
	var interrupted []int

	results, err := pipeline.ResolveAll(ctx, r, addresses, workers, func(i int, _ *models.ResolvedAddress) {
		if ctx.Err() != nil {
			mu.Lock()
			interrupted = append(interrupted, i)
			mu.Unlock()
			return
		}
		n := done.Add(1)
		if n%100 == 0 || int(n) == total {
			logger.Info("Tiến độ",
				zap.Int64("processed", n),
				zap.Int("total", total),
				zap.Duration("elapsed", time.Since(startTime).Round(time.Second)))
		}
	})
	for _, i := range interrupted {
		results[i] = nil
	}
	return results, err
}

// readAddresses mỗi dòng một địa chỉ, bỏ dòng trống và dòng trùng lặp (giữ lần xuất hiện đầu)
func readAddresses(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	seen := make(map[string]struct{})
	var addresses []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		addresses = append(addresses, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("lỗi đọc đầu vào: %w", err)
	}
	return addresses, nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" || path == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" || path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	w := bufio.NewWriter(f)
	return w, func() {
		w.Flush()
		f.Close()
	}, nil
}
