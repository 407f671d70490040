// An example server that can be used to send push notifications.
//
// - VAPID keys are read from VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY, or a .env
//   file. If neither is set a key pair is generated on startup. In real use
//   generate the pair once with "genkeys" and remember to securely store it.

package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/classpush/webpush"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

//go:embed static
var staticFiles embed.FS

type server struct {
	keys   *webpush.VAPIDKeyPair
	sender *webpush.Sender
	log    *slog.Logger
	delay  time.Duration
}

func loadKeys(conf *config, log *slog.Logger) (*webpush.VAPIDKeyPair, error) {
	if conf.VAPIDPublicKey == "" && conf.VAPIDPrivateKey == "" {
		keys, err := webpush.GenerateVAPIDKeyPair()
		if err != nil {
			return nil, err
		}
		log.Warn("generated a temporary VAPID key pair, subscriptions will not survive a restart",
			"VAPID_PUBLIC_KEY", keys.PublicKey(), "hint", "run with genkeys to create a persistent pair")
		return keys, nil
	}
	return webpush.LoadVAPIDKeyPair(conf.VAPIDPublicKey, conf.VAPIDPrivateKey)
}

func (s *server) routes() http.Handler {
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	files := http.FileServerFS(static)

	r := mux.NewRouter()
	r.HandleFunc("/", s.index).Methods(http.MethodGet)
	r.HandleFunc("/push", s.push).Methods(http.MethodPost)
	r.PathPrefix("/").Handler(files).Methods(http.MethodGet)
	return r
}

// index page including the vapid public key used by the JavaScript
func (s *server) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, indexHTML, s.keys.PublicKey())
}

// schedule push notification to the given subscription
func (s *server) push(w http.ResponseWriter, r *http.Request) {
	var sub webpush.Subscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintln(w, err)
		return
	}

	id := uuid.NewString()
	log := s.log.With("message_id", id)
	go func() {
		time.Sleep(s.delay)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := s.sender.Notify(ctx, &webpush.Notification{
			Title: "Test push from WebPush Example",
			Body:  "Sent at " + time.Now().Format(time.Kitchen),
			Tag:   id,
		}, &sub)

		var statusErr *webpush.StatusError
		switch {
		case err == nil:
			log.Info("push delivered")
		case errors.As(err, &statusErr) && statusErr.Gone():
			log.Info("subscription gone, client should resubscribe", "status", statusErr.StatusCode)
		default:
			log.Error("push failed", "err", err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id})
}

// genkeys prints a new key pair in .env format.
func genkeys(w io.Writer) error {
	keys, err := webpush.GenerateVAPIDKeyPair()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "VAPID_PUBLIC_KEY=%s\nVAPID_PRIVATE_KEY=%s\n", keys.PublicKey(), keys.PrivateKey())
	return err
}

func run(args []string) error {
	if len(args) > 0 && args[0] == "genkeys" {
		return genkeys(os.Stdout)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	conf, err := loadConfig(os.Getenv, ".env")
	if err != nil {
		return err
	}

	keys, err := loadKeys(conf, log)
	if err != nil {
		return err
	}

	sender, err := webpush.NewSender(&webpush.Config{
		Client:     &http.Client{Timeout: 30 * time.Second},
		VAPIDKeys:  keys,
		Subscriber: conf.Subject,
		TTL:        conf.TTL,
		Logger:     log,
	})
	if err != nil {
		return err
	}

	s := &server{keys: keys, sender: sender, log: log, delay: 5 * time.Second}
	httpServer := &http.Server{
		Handler:           s.routes(),
		Addr:              ":" + conf.Port,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if conf.TLSCertFile != "" {
		log.Info("serving", "url", "https://127.0.0.1:"+conf.Port)
		return httpServer.ListenAndServeTLS(conf.TLSCertFile, conf.TLSKeyFile)
	}
	log.Info("serving", "url", "http://127.0.0.1:"+conf.Port)
	return httpServer.ListenAndServe()
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

const indexHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>WebPush Example</title>
  <meta data-vapid-public-key="%s">
</head>
<body>
  <h1>WebPush Example</h1>
  <button id="send-push">Subscribe & Schedule Push</button>
  <button id="unsubscribe">Unsubscribe</button>
  <pre id="msg"></pre>
  <script src="/main.js"></script>
</body>
</html>
`
