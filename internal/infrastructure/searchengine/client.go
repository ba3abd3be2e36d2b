// Package searchengine talks to the managed search and answer-generation backend
// (Discovery Engine REST API).
package searchengine

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/resilience"
)

const (
	defaultPageSize = 100
	maxListPages    = 200
)

type Options struct {
	BaseURL     string
	ProjectID   string
	Location    string
	DataStoreID string
	EngineID    string
	AccessToken string
	PageSize    int
	Timeout     time.Duration
	Executor    *resilience.Executor
}

type Client struct {
	baseURL     string
	dataStore   string
	engine      string
	accessToken string
	pageSize    int
	httpClient  *http.Client
	executor    *resilience.Executor
}

func New(opts Options) *Client {
	location := opts.Location
	if location == "" {
		location = "global"
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	collection := fmt.Sprintf("projects/%s/locations/%s/collections/default_collection", opts.ProjectID, location)
	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		dataStore:   collection + "/dataStores/" + opts.DataStoreID,
		engine:      collection + "/engines/" + opts.EngineID,
		accessToken: opts.AccessToken,
		pageSize:    pageSize,
		httpClient:  &http.Client{Timeout: timeout},
		executor:    opts.Executor,
	}
}

func (c *Client) documentsPath() string {
	return "/" + c.dataStore + "/branches/default_branch/documents"
}

func (c *Client) answerPath() string {
	return "/" + c.engine + "/servingConfigs/default_search:answer"
}
