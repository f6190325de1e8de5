// Package pubsub is the Google Pub/Sub v2 transport the outbox relay sends on.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

var (
	errNoProject = errors.New("pubsub: gcp project id is required")
	errNoTopics  = errors.New("pubsub: at least one topic is required")
	errClosed    = errors.New("pubsub: client closed")
)

// Client holds one long-lived publisher per topic. Publishers batch and keep
// goroutines, so they are created once and stopped on Close.
type Client struct {
	client  *pubsub.Client
	project string
	topics  []string

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
	closed     bool
}

// NewClient dials Pub/Sub and fails unless every topic already exists.
func NewClient(ctx context.Context, gcp config.GCPConfig, topics []string, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	if project == "" {
		return nil, errNoProject
	}
	psClient, err := pubsub.NewClient(ctx, project, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("pubsub: dial: %w", err)
	}
	c := &Client{
		client:     psClient,
		project:    project,
		topics:     cleanNames(topics),
		publishers: map[string]*pubsub.Publisher{},
	}
	if err := c.Ping(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "topics", c.topics), "pubsub client ready")
	}
	return c, nil
}

// clientOptions picks inline credentials over a key file. With neither set the
// library falls back to application default credentials or the emulator.
func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(gcp.CredentialsJSON))}
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		return []option.ClientOption{option.WithCredentialsFile(gcp.ApplicationCredentials)}
	}
	return nil
}

// Send publishes msg and waits for the server to acknowledge it.
func (c *Client) Send(ctx context.Context, topic string, msg *pubsub.Message) (string, error) {
	p, err := c.publisher(topic)
	if err != nil {
		return "", err
	}
	return p.Publish(ctx, msg).Get(ctx)
}

func (c *Client) publisher(topic string) (*pubsub.Publisher, error) {
	if c == nil || c.client == nil {
		return nil, errClosed
	}
	name := topicResourceName(c.project, topic)
	if name == "" {
		return nil, fmt.Errorf("pubsub: topic %q not configured", topic)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errClosed
	}
	p, ok := c.publishers[name]
	if !ok {
		p = c.client.Publisher(name)
		c.publishers[name] = p
	}
	return p, nil
}

// Ping confirms every configured topic exists.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errClosed
	}
	if len(c.topics) == 0 {
		return errNoTopics
	}
	for _, topic := range c.topics {
		_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: topicResourceName(c.project, topic)})
		switch {
		case status.Code(err) == codes.NotFound:
			return fmt.Errorf("pubsub: topic %q does not exist", topic)
		case err != nil:
			return fmt.Errorf("pubsub: check topic %q: %w", topic, err)
		}
	}
	return nil
}

// Close flushes and stops every publisher, then releases the connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for _, p := range c.publishers {
		p.Stop()
	}
	c.mu.Unlock()
	return c.client.Close()
}

// IsPermanent reports whether a publish error will recur on retry, such as a
// deleted topic or a rejected message.
func IsPermanent(err error) bool {
	switch status.Code(err) {
	case codes.NotFound, codes.InvalidArgument, codes.PermissionDenied, codes.FailedPrecondition:
		return true
	}
	return false
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func topicResourceName(project, name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/topics/") {
		return name
	}
	project = strings.TrimSpace(project)
	if name == "" || project == "" {
		return ""
	}
	return "projects/" + project + "/topics/" + name
}
