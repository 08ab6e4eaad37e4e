package pipeline

import (
	"context"

	"github.com/address-cleaner/app/models"
	"golang.org/x/sync/errgroup"
)

// Resolver interface tối thiểu để chạy batch, *Cleaner thỏa mãn
type Resolver interface {
	Resolve(ctx context.Context, raw string) *models.ResolvedAddress
}

// ResolveAll chạy Resolve cho từng địa chỉ với tối đa workers goroutine.
// Kết quả giữ đúng thứ tự đầu vào. onDone (nếu có) được gọi sau mỗi địa chỉ,
// có thể từ nhiều goroutine cùng lúc. Lỗi duy nhất trả về là ctx bị huỷ
// trước khi một địa chỉ bắt đầu.
func ResolveAll(
	ctx context.Context,
	r Resolver,
	queries []string,
	workers int,
	onDone func(i int, ra *models.ResolvedAddress),
) ([]*models.ResolvedAddress, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]*models.ResolvedAddress, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, q := range queries {
		i, q := i, q
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ra := r.Resolve(gctx, q)
			results[i] = ra
			if onDone != nil {
				onDone(i, ra)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
