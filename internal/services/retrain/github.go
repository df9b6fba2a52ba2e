// Package retrain dispatches the model retraining workflow on GitHub Actions.
package retrain

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/service"
	xhttp "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/http"
)

// GitHubDispatcher fires a workflow_dispatch event. GitHub answers 204 with no body.
type GitHubDispatcher struct {
	apiURL   string
	repo     string
	workflow string
	ref      string
	token    string
	client   *xhttp.Client
}

var _ service.RetrainTrigger = (*GitHubDispatcher)(nil)

type Config struct {
	APIURL   string
	Repo     string // owner/name
	Workflow string // file name or numeric id
	Ref      string
	Token    string
	Timeout  time.Duration
}

func NewGitHubDispatcher(cfg Config) (*GitHubDispatcher, error) {
	if cfg.Repo == "" || cfg.Workflow == "" || cfg.Token == "" {
		return nil, fmt.Errorf("retrain: repo, workflow and token are required")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.github.com"
	}
	if cfg.Ref == "" {
		cfg.Ref = "main"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &GitHubDispatcher{
		apiURL:   strings.TrimRight(cfg.APIURL, "/"),
		repo:     cfg.Repo,
		workflow: cfg.Workflow,
		ref:      cfg.Ref,
		token:    cfg.Token,
		client:   xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
	}, nil
}

type dispatchBody struct {
	Ref    string            `json:"ref"`
	Inputs map[string]string `json:"inputs,omitempty"`
}

func (d *GitHubDispatcher) Trigger(ctx context.Context, reason string) error {
	endpoint := fmt.Sprintf("%s/repos/%s/actions/workflows/%s/dispatches",
		d.apiURL, d.repo, url.PathEscape(d.workflow))

	body := dispatchBody{Ref: d.ref}
	if reason != "" {
		body.Inputs = map[string]string{"reason": reason}
	}

	err := d.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: http.MethodPost,
		URL:    endpoint,
		Headers: map[string]string{
			"Authorization":        "Bearer " + d.token,
			"Accept":               "application/vnd.github+json",
			"X-GitHub-Api-Version": "2022-11-28",
		},
		Body: body,
	}, nil)
	if err != nil {
		return fmt.Errorf("dispatch %s on %s: %w", d.workflow, d.repo, err)
	}
	return nil
}
