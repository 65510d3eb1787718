package browser

import (
	"context"
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"
)

// RandomDelay waits for a random duration in [min, max], or until ctx ends.
func RandomDelay(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		d += time.Duration(rand.Int63n(int64(max - min)))
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// MouseJiggle moves the mouse to a few random points in the viewport.
func MouseJiggle(ctx context.Context, page playwright.Page) error {
	width, height := 800, 600
	if vp := page.ViewportSize(); vp != nil {
		width, height = vp.Width, vp.Height
	}

	for i := 0; i < 3; i++ {
		x := float64(rand.Intn(width))
		y := float64(rand.Intn(height))
		if err := page.Mouse().Move(x, y); err != nil {
			return err
		}
		if err := RandomDelay(ctx, 100*time.Millisecond, 300*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

// SmoothScroll scrolls down and back up a little like a reader would.
func SmoothScroll(ctx context.Context, page playwright.Page) error {
	if err := page.Mouse().Wheel(0, 500); err != nil {
		return err
	}
	if err := RandomDelay(ctx, 500*time.Millisecond, time.Second); err != nil {
		return err
	}
	if err := page.Mouse().Wheel(0, -200); err != nil {
		return err
	}
	return RandomDelay(ctx, 300*time.Millisecond, 600*time.Millisecond)
}
