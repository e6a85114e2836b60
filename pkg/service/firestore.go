package service

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/danielkrainas/lapse/pkg/util/log"
)

type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
	Collection      string
}

// FirestoreStore keeps polls in a Firestore collection. The client is
// created once by NewFirestoreStore and shared by every operation.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

var _ PollStore = &FirestoreStore{}

func NewFirestoreStore(ctx context.Context, config FirestoreConfig, opts ...option.ClientOption) (*FirestoreStore, error) {
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}

	var fbConfig *firebase.Config
	if config.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: config.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect firestore: %w", err)
	}

	collection := config.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	log.Info("firestore storage ready", zap.String("project", config.ProjectID), zap.String("collection", collection))
	return NewFirestoreStoreWithClient(client, collection), nil
}

func NewFirestoreStoreWithClient(client *firestore.Client, collection string) *FirestoreStore {
	return &FirestoreStore{
		client:     client,
		collection: collection,
	}
}

func (storage *FirestoreStore) polls() *firestore.CollectionRef {
	return storage.client.Collection(storage.collection)
}

func (storage *FirestoreStore) FindActive(ctx context.Context) ([]*Poll, error) {
	return storage.collect(storage.polls().Where("isActive", "==", true).Documents(ctx))
}

func (storage *FirestoreStore) Deactivate(ctx context.Context, id string) error {
	_, err := storage.polls().Doc(id).Update(ctx, []firestore.Update{
		{Path: "isActive", Value: false},
	})

	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: %s", ErrPollNotFound, id)
	}

	return err
}

func (storage *FirestoreStore) CreatePoll(ctx context.Context, p *Poll) (*Poll, error) {
	ref, _, err := storage.polls().Add(ctx, p)
	if err != nil {
		return nil, err
	}

	created := p.clone()
	created.ID = ref.ID
	return created, nil
}

func (storage *FirestoreStore) GetPoll(ctx context.Context, id string) (*Poll, error) {
	doc, err := storage.polls().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%w: %s", ErrPollNotFound, id)
	} else if err != nil {
		return nil, err
	}

	return decodePoll(doc)
}

func (storage *FirestoreStore) ListPolls(ctx context.Context) ([]*Poll, error) {
	return storage.collect(storage.polls().Documents(ctx))
}

func (storage *FirestoreStore) Close() error {
	return storage.client.Close()
}

func (storage *FirestoreStore) collect(it *firestore.DocumentIterator) ([]*Poll, error) {
	defer it.Stop()
	result := make([]*Poll, 0)
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		} else if err != nil {
			return nil, err
		}

		p, err := decodePoll(doc)
		if err != nil {
			log.Warn("skipping undecodable poll", zap.String("id", doc.Ref.ID), zap.Error(err))
			continue
		}

		result = append(result, p)
	}

	return result, nil
}

func decodePoll(doc *firestore.DocumentSnapshot) (*Poll, error) {
	p := &Poll{}
	if err := doc.DataTo(p); err != nil {
		return nil, err
	}

	p.ID = doc.Ref.ID
	return p, nil
}
