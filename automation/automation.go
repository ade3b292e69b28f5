package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// ErrBrowserUnavailable is returned when no headless browser can be started.
var ErrBrowserUnavailable = errors.New("headless browser unavailable")

const renderTimeout = 30 * time.Second

// RenderPDF prints an HTML document to PDF with a headless Chromium.
func RenderPDF(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, renderTimeout)
	defer cancel()

	// Leakless(false) keeps antivirus software from flagging the helper binary.
	u, err := launcher.New().
		Headless(true).
		Leakless(false).
		Context(ctx).
		Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}

	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			zap.S().Debugf("Failed to close browser: %v", err)
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed to wait for document: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{PrintBackground: true})
	if err != nil {
		return nil, fmt.Errorf("failed to print pdf: %w", err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf stream: %w", err)
	}
	zap.S().Debugf("Rendered PDF (%d bytes)", len(data))
	return data, nil
}
