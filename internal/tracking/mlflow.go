package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"docsense/internal/config"
	"docsense/internal/port"
)

// MLflowSink records runs through the MLflow tracking REST API.
type MLflowSink struct {
	baseURL    string
	experiment string
	client     *http.Client
	store      port.ObjectStorage
	log        zerolog.Logger
	now        func() time.Time

	mu           sync.Mutex
	experimentID string
}

// NewMLflowSink creates an MLflow sink for cfg.URI and cfg.Experiment.
func NewMLflowSink(cfg config.TrackingConfig, store port.ObjectStorage, log zerolog.Logger) (*MLflowSink, error) {
	if cfg.URI == "" {
		return nil, errors.New("mlflow tracking uri is required")
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	experiment := cfg.Experiment
	if experiment == "" {
		experiment = "Document_Extraction"
	}
	return &MLflowSink{
		baseURL:    strings.TrimRight(cfg.URI, "/") + "/api/2.0/mlflow",
		experiment: experiment,
		client:     &http.Client{Timeout: timeout},
		store:      store,
		log:        log,
		now:        time.Now,
	}, nil
}

type mlflowError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func (s *MLflowSink) call(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling mlflow: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr mlflowError
		_ = json.Unmarshal(respBody, &apiErr)
		if apiErr.ErrorCode == "RESOURCE_DOES_NOT_EXIST" {
			return errNotFound
		}
		return fmt.Errorf("mlflow error (status %d): %s", resp.StatusCode, string(respBody))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshaling response: %w", err)
		}
	}
	return nil
}

var errNotFound = errors.New("mlflow resource does not exist")

// ensureExperiment resolves the experiment id once, creating the experiment
// when it does not exist.
func (s *MLflowSink) ensureExperiment(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.experimentID != "" {
		return s.experimentID, nil
	}

	var got struct {
		Experiment struct {
			ExperimentID string `json:"experiment_id"`
		} `json:"experiment"`
	}
	err := s.call(ctx, http.MethodGet, "/experiments/get-by-name?experiment_name="+url.QueryEscape(s.experiment), nil, &got)
	switch {
	case err == nil:
		s.experimentID = got.Experiment.ExperimentID
	case errors.Is(err, errNotFound):
		var created struct {
			ExperimentID string `json:"experiment_id"`
		}
		if err := s.call(ctx, http.MethodPost, "/experiments/create", map[string]interface{}{"name": s.experiment}, &created); err != nil {
			return "", fmt.Errorf("creating experiment: %w", err)
		}
		s.log.Info().Str("experiment", s.experiment).Str("experiment_id", created.ExperimentID).Msg("mlflow experiment created")
		s.experimentID = created.ExperimentID
	default:
		return "", fmt.Errorf("looking up experiment: %w", err)
	}
	return s.experimentID, nil
}

func (s *MLflowSink) StartRun(ctx context.Context, name string) (port.Run, error) {
	expID, err := s.ensureExperiment(ctx)
	if err != nil {
		return nil, err
	}

	var created struct {
		Run struct {
			Info struct {
				RunID string `json:"run_id"`
			} `json:"info"`
		} `json:"run"`
	}
	if err := s.call(ctx, http.MethodPost, "/runs/create", map[string]interface{}{
		"experiment_id": expID,
		"run_name":      name,
		"start_time":    s.now().UnixMilli(),
	}, &created); err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	return &mlflowRun{sink: s, id: created.Run.Info.RunID}, nil
}

// ArtifactKey is the object key of a run artifact.
func ArtifactKey(experiment, runID, name string) string {
	return path.Join(experiment, runID, "artifacts", name)
}

type mlflowRun struct {
	sink *MLflowSink
	id   string
}

func (r *mlflowRun) ID() string { return r.id }

func (r *mlflowRun) LogParam(ctx context.Context, key, value string) error {
	return r.sink.call(ctx, http.MethodPost, "/runs/log-parameter", map[string]interface{}{
		"run_id": r.id,
		"key":    key,
		"value":  value,
	}, nil)
}

func (r *mlflowRun) LogMetric(ctx context.Context, key string, value float64) error {
	return r.sink.call(ctx, http.MethodPost, "/runs/log-metric", map[string]interface{}{
		"run_id":    r.id,
		"key":       key,
		"value":     value,
		"timestamp": r.sink.now().UnixMilli(),
		"step":      0,
	}, nil)
}

func (r *mlflowRun) LogArtifact(ctx context.Context, name string, data []byte) error {
	if r.sink.store == nil {
		r.sink.log.Debug().Str("artifact", name).Msg("mlflow: no artifact store configured, skipping")
		return nil
	}
	key := ArtifactKey(r.sink.experiment, r.id, name)
	_, err := r.sink.store.Upload(ctx, port.UploadInput{
		Key:         key,
		Body:        bytes.NewReader(data),
		ContentType: contentType(name),
		Size:        int64(len(data)),
	})
	if err != nil {
		return fmt.Errorf("uploading artifact %s: %w", name, err)
	}
	return nil
}

func (r *mlflowRun) End(ctx context.Context, failed bool) error {
	status := "FINISHED"
	if failed {
		status = "FAILED"
	}
	return r.sink.call(ctx, http.MethodPost, "/runs/update", map[string]interface{}{
		"run_id":   r.id,
		"status":   status,
		"end_time": r.sink.now().UnixMilli(),
	}, nil)
}

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}
