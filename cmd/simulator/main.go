// Command simulator walks a synthetic user along a session's calculated
// route and publishes position samples to the session's NATS subject. It is
// the development stand-in for a browser feeding real geolocation fixes.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	natsadapter "github.com/hyunwoojo/gilro/internal/adapters/nats"
	"github.com/hyunwoojo/gilro/internal/core/domain"
	"github.com/hyunwoojo/gilro/internal/pkg/config"
	"github.com/hyunwoojo/gilro/internal/pkg/geospatial"
)

func main() {
	var (
		sessionID = flag.String("session", "", "session ID with a calculated route (required)")
		apiBase   = flag.String("api", "http://localhost:8080", "API base URL to fetch the route plan from")
		speed     = flag.Float64("speed", 5.0, "simulated speed in m/s")
		interval  = flag.Duration("interval", 2*time.Second, "publish interval")
		jitter    = flag.Float64("accuracy", 12.0, "reported accuracy in meters")
	)
	flag.Parse()

	if *sessionID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load("gilro-simulator")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	nc, err := nats.Connect(cfg.NATS.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer nc.Drain()

	path, err := fetchPath(*apiBase, *sessionID)
	if err != nil {
		log.Fatalf("fetch route: %v", err)
	}
	if len(path) < 2 {
		log.Fatal("route plan has no usable coordinates; calculate a route first")
	}

	subject := natsadapter.PositionSubject(*sessionID)
	log.Printf("simulating %d waypoints at %.1f m/s on %s", len(path), *speed, subject)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	stepMeters := *speed * interval.Seconds()
	segment := 0
	travelled := 0.0

	for {
		select {
		case <-quit:
			log.Println("simulator stopped")
			return
		case <-ticker.C:
			pos, done := positionAt(path, segment, travelled)
			sample := domain.Position{
				Lat:       pos.Lat,
				Lng:       pos.Lng,
				Accuracy:  *jitter,
				Speed:     *speed,
				Timestamp: time.Now(),
			}
			data, _ := json.Marshal(sample)
			if err := nc.Publish(subject, data); err != nil {
				log.Printf("publish: %v", err)
			}

			if done {
				log.Println("destination reached")
				return
			}

			travelled += stepMeters
			for segment < len(path)-1 {
				segLen := geospatial.Haversine(path[segment].Lat, path[segment].Lng, path[segment+1].Lat, path[segment+1].Lng)
				if travelled < segLen {
					break
				}
				travelled -= segLen
				segment++
			}
		}
	}
}

// fetchPath pulls the session's plan from the API and flattens the leg
// endpoint coordinates into an ordered path.
func fetchPath(apiBase, sessionID string) ([]domain.GeoPoint, error) {
	url := fmt.Sprintf("%s/v1/sessions/%s/route", apiBase, sessionID)
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("GET %s: %d: %s", url, resp.StatusCode, string(body))
	}

	var plan domain.RoutePlan
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		return nil, err
	}

	var path []domain.GeoPoint
	for _, leg := range plan.Legs {
		if leg.OriginLocation != nil {
			path = append(path, *leg.OriginLocation)
		}
		if leg.DestinationLocation != nil {
			path = append(path, *leg.DestinationLocation)
		}
	}
	return dedupe(path), nil
}

func dedupe(path []domain.GeoPoint) []domain.GeoPoint {
	out := path[:0]
	for i, p := range path {
		if i > 0 && p == path[i-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}

// positionAt interpolates along the path: travelled meters into the given
// segment. done is true once the end of the path is reached.
func positionAt(path []domain.GeoPoint, segment int, travelled float64) (domain.GeoPoint, bool) {
	if segment >= len(path)-1 {
		return path[len(path)-1], true
	}

	a, b := path[segment], path[segment+1]
	segLen := geospatial.Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
	if segLen <= 0 {
		return b, segment+1 >= len(path)-1
	}

	f := travelled / segLen
	if f >= 1 {
		return b, segment+1 >= len(path)-1
	}
	return domain.GeoPoint{
		Lat: a.Lat + (b.Lat-a.Lat)*f,
		Lng: a.Lng + (b.Lng-a.Lng)*f,
	}, false
}
