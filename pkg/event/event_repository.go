package event

import (
	"context"
	"errors"

	"Cooki-Backend/domain"
	"Cooki-Backend/entities"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	pkgerrors "github.com/pkg/errors"
)

type (
	EventRepository interface {
		AppendEvent(ctx context.Context, scope domain.EventScope, event *entities.Event) error
		GetEvents(ctx context.Context, scope domain.EventScope, limit int) ([]*entities.Event, error)
		MarkRead(ctx context.Context, scope domain.EventScope, eventID string, readerID string) error
	}

	eventRepository struct {
		db    *dynamodb.Client
		table string
	}
)

func NewEventRepository(db *dynamodb.Client, table string) EventRepository {
	return &eventRepository{db: db, table: table}
}

func sortKey(eventID string) string {
	return domain.EventSortKeyPrefix + eventID
}

func (r *eventRepository) AppendEvent(ctx context.Context, scope domain.EventScope, event *entities.Event) error {
	event.PK = scope.Key()
	event.SK = sortKey(event.ID)

	item, err := attributevalue.MarshalMap(event)
	if err != nil {
		return pkgerrors.Wrap(err, "marshal event")
	}

	_, err = r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	return pkgerrors.Wrapf(err, "put event %s", event.SK)
}

// GetEvents returns the newest events of the scope first. A limit <= 0 reads
// the whole partition.
func (r *eventRepository) GetEvents(ctx context.Context, scope domain.EventScope, limit int) ([]*entities.Event, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: scope.Key()},
			":prefix": &types.AttributeValueMemberS{Value: domain.EventSortKeyPrefix},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	events := make([]*entities.Event, 0)
	paginator := dynamodb.NewQueryPaginator(r.db, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "query events %s", scope.Key())
		}

		var batch []*entities.Event
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, &domain.DecodeError{Err: pkgerrors.Wrapf(err, "events %s", scope.Key())}
		}
		for _, e := range batch {
			if e.ID == "" || e.Type == "" {
				return nil, &domain.DecodeError{Err: pkgerrors.Errorf("event %s missing id or type", e.SK)}
			}
		}
		events = append(events, batch...)

		if limit > 0 && len(events) >= limit {
			return events[:limit], nil
		}
	}
	return events, nil
}

// MarkRead adds readerID to the event's read_by set. ADD is a set union, so
// repeating the call leaves the item unchanged.
func (r *eventRepository) MarkRead(ctx context.Context, scope domain.EventScope, eventID string, readerID string) error {
	_, err := r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: scope.Key()},
			"SK": &types.AttributeValueMemberS{Value: sortKey(eventID)},
		},
		UpdateExpression:    aws.String("ADD read_by :reader"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":reader": &types.AttributeValueMemberSS{Value: []string{readerID}},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return domain.ErrEventNotFound
		}
		return pkgerrors.Wrapf(err, "mark event %s read", eventID)
	}
	return nil
}
