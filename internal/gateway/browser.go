package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

var checkoutPage = template.Must(template.New("checkout").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Options.Name}} checkout</title>
<script src="/checkout.js"></script>
</head>
<body>
<p id="status">Opening payment window...</p>
<script>
(function () {
  var settled = false;
  function report(path, payload, message) {
    if (settled) { return; }
    settled = true;
    fetch(path, {method: "POST", headers: {"Content-Type": "application/json"}, body: JSON.stringify(payload)})
      .finally(function () { document.getElementById("status").textContent = message; });
  }
  var options = {{.Options}};
  options.handler = function (response) {
    report("/success", response, "Payment received. You can close this window.");
  };
  var widget = new Razorpay(options);
  widget.on("payment.failed", function (response) {
    report("/failure", response.error, "Payment failed. You can close this window.");
  });
  widget.open();
})();
</script>
</body>
</html>
`))

// Opener shows url to the user.
type Opener func(url string) error

// BrowserWidget serves a loopback page that embeds the hosted widget and relays the
// page's handler and payment.failed events back as callbacks.
type BrowserWidget struct {
	loader *ScriptLoader
	open   Opener
	log    log.FieldLogger

	mu      sync.Mutex
	servers []*http.Server
}

func NewBrowserWidget(loader *ScriptLoader, open Opener, logger log.FieldLogger) *BrowserWidget {
	if open == nil {
		open = OpenBrowser
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &BrowserWidget{
		loader: loader,
		open:   open,
		log:    logger.WithField("component", "browser-widget"),
	}
}

func (w *BrowserWidget) Load(ctx context.Context) error {
	return w.loader.Load(ctx)
}

// Open starts the page server and hands its URL to the opener.
func (w *BrowserWidget) Open(ctx context.Context, opts Options, cb Callbacks) error {
	script := w.loader.Script()
	if script == nil {
		return fmt.Errorf("%w: widget script not loaded", ErrUnavailable)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	srv := &http.Server{ReadHeaderTimeout: 10 * time.Second}
	cb = once(cb)
	settle := func() {
		go func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}
	srv.Handler = w.routes(opts, script, cb, settle)

	w.mu.Lock()
	w.servers = append(w.servers, srv)
	w.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.log.WithError(err).Error("Checkout page server stopped")
		}
	}()

	url := "http://" + ln.Addr().String() + "/"
	w.log.WithFields(log.Fields{"url": url, "order_id": opts.OrderID}).Info("Payment window ready")
	if err := w.open(url); err != nil {
		_ = srv.Close()
		return fmt.Errorf("%w: failed to open %s: %v", ErrUnavailable, url, err)
	}
	return nil
}

func (w *BrowserWidget) routes(opts Options, script []byte, cb Callbacks, settle func()) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := checkoutPage.Execute(rw, struct{ Options Options }{opts}); err != nil {
			w.log.WithError(err).Error("Failed to render checkout page")
		}
	})
	mux.HandleFunc("GET /checkout.js", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/javascript")
		_, _ = rw.Write(script)
	})
	mux.HandleFunc("POST /success", func(rw http.ResponseWriter, r *http.Request) {
		var s Success
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			http.Error(rw, "invalid payload", http.StatusBadRequest)
			return
		}
		rw.WriteHeader(http.StatusNoContent)
		cb.OnSuccess(s)
		settle()
	})
	mux.HandleFunc("POST /failure", func(rw http.ResponseWriter, r *http.Request) {
		var f Failure
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			http.Error(rw, "invalid payload", http.StatusBadRequest)
			return
		}
		rw.WriteHeader(http.StatusNoContent)
		cb.OnFailure(f)
		settle()
	})
	return mux
}

// Close stops every page server still waiting for an outcome.
func (w *BrowserWidget) Close() error {
	w.mu.Lock()
	servers := w.servers
	w.servers = nil
	w.mu.Unlock()

	var errs []error
	for _, srv := range servers {
		if err := srv.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenBrowser asks the desktop to open url.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
