package store

import (
	"context"
	"encoding/json"

	"github.com/kuzowebsite/ider-surver/log"
	"github.com/kuzowebsite/ider-surver/model"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Redis keeps the catalog as a JSON string, submissions in a stream whose
// entry ids serve as push keys, and announces new submissions on a pub/sub
// channel. All keys are namespaced by the project id.
type Redis struct {
	client *redis.Client
	prefix string
}

func OpenRedis(url, projectID string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "store.redis.parse_url")
	}
	return NewRedis(redis.NewClient(opts), projectID), nil
}

func NewRedis(client *redis.Client, projectID string) *Redis {
	return &Redis{client: client, prefix: projectID}
}

func (r *Redis) key(name string) string {
	return r.prefix + ":" + name
}

func (r *Redis) LoadCatalog(ctx context.Context) ([]model.Question, error) {
	doc, err := r.client.Get(ctx, r.key("questions")).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "store.redis.load_catalog")
	}

	var questions []model.Question
	if err := json.Unmarshal(doc, &questions); err != nil {
		return nil, errors.Wrap(err, "store.redis.load_catalog.decode")
	}
	return questions, nil
}

func (r *Redis) SaveCatalog(ctx context.Context, questions []model.Question) error {
	doc, err := json.Marshal(questions)
	if err != nil {
		return errors.Wrap(err, "store.redis.save_catalog.encode")
	}
	err = r.client.Set(ctx, r.key("questions"), doc, 0).Err()
	return errors.Wrap(err, "store.redis.save_catalog")
}

func (r *Redis) PushSubmission(ctx context.Context, s model.Submission) (string, error) {
	doc, err := encodeSubmission(s)
	if err != nil {
		return "", errors.Wrap(err, "store.redis.push.encode")
	}

	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.key("surveys"),
		Values: map[string]any{"doc": string(doc)},
	}).Result()
	if err != nil {
		return "", errors.Wrap(err, "store.redis.push")
	}

	// the submission is stored; a lost notification only delays live views
	if err := r.client.Publish(ctx, r.key("surveys:changed"), id).Err(); err != nil {
		log.Warnf("store.redis.push.publish: %s", err)
	}
	return id, nil
}

func (r *Redis) ListSubmissions(ctx context.Context) ([]model.Submission, error) {
	entries, err := r.client.XRange(ctx, r.key("surveys"), "-", "+").Result()
	if err != nil {
		return nil, errors.Wrap(err, "store.redis.list")
	}

	submissions := make([]model.Submission, 0, len(entries))
	for _, e := range entries {
		doc, ok := e.Values["doc"].(string)
		if !ok {
			log.Warnf("store.redis.list: entry %s has no document", e.ID)
			continue
		}
		s, err := decodeSubmission(e.ID, []byte(doc))
		if err != nil {
			return nil, errors.Wrapf(err, "store.redis.list.decode %s", e.ID)
		}
		submissions = append(submissions, s)
	}
	SortByTimestamp(submissions)
	return submissions, nil
}

func (r *Redis) Subscribe(ctx context.Context, onSnapshot SnapshotFunc, onError ErrorFunc) (Unsubscribe, error) {
	ctx, cancel := context.WithCancel(ctx)

	ps := r.client.Subscribe(ctx, r.key("surveys:changed"))
	if _, err := ps.Receive(ctx); err != nil {
		cancel()
		ps.Close()
		return nil, errors.Wrap(err, "store.redis.subscribe")
	}

	deliver := func() {
		submissions, err := r.ListSubmissions(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onSnapshot(submissions)
	}

	messages := ps.Channel()
	go func() {
		deliver()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					return
				}
				// collapse queued notifications into one reload
			drain:
				for {
					select {
					case _, ok := <-messages:
						if !ok {
							break drain
						}
					default:
						break drain
					}
				}
				deliver()
			}
		}
	}()

	return func() {
		cancel()
		ps.Close()
	}, nil
}

func (r *Redis) ConnectionTest(ctx context.Context) error {
	sent := newProbe()
	doc, err := json.Marshal(sent)
	if err != nil {
		return err
	}

	key := r.key("connection_test")
	if err := r.client.Set(ctx, key, doc, 0).Err(); err != nil {
		return errors.Wrap(err, "store.redis.connection_test.write")
	}
	back, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return errors.Wrap(err, "store.redis.connection_test.read")
	}
	return checkProbe(sent, back)
}

func (r *Redis) Close() error {
	return r.client.Close()
}
