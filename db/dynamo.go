package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ErrNotConfigured is returned when a table operation runs before Init.
var ErrNotConfigured = errors.New("dynamodb client not initialized")

var svc *dynamodb.Client

func Init() {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(os.Getenv("AWS_REGION")),
	)
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	svc = dynamodb.NewFromConfig(cfg)
	log.Println("DynamoDB Session Initialized")

	// DIAGNOSTIC INFO
	stsSvc := sts.NewFromConfig(cfg)
	identity, err := stsSvc.GetCallerIdentity(context.TODO(), &sts.GetCallerIdentityInput{})
	if err != nil {
		log.Printf("DIAGNOSTIC ERROR: Could not get AWS identity: %v", err)
	} else {
		log.Printf("DIAGNOSTIC: Operating as Account: %s, ARN: %s", aws.ToString(identity.Account), aws.ToString(identity.Arn))
	}
	log.Printf("DIAGNOSTIC: Region: %s", cfg.Region)
}

// Model: ScoreEntry
type ScoreEntry struct {
	ScoreID   string `json:"scoreId" dynamodbav:"ScoreID"`
	Name      string `json:"name" dynamodbav:"Name"`
	Score     int    `json:"score" dynamodbav:"Score"`
	UserID    string `json:"userId,omitempty" dynamodbav:"UserID,omitempty"`
	CreatedAt int64  `json:"createdAt" dynamodbav:"CreatedAt"` // Unix millis
}

// Model: BubbleUser
type BubbleUser struct {
	UserID      string `json:"userId" dynamodbav:"UserID"`
	Email       string `json:"email" dynamodbav:"Email"`
	Name        string `json:"name" dynamodbav:"Name"`
	Picture     string `json:"picture" dynamodbav:"Picture"`
	BestScore   int    `json:"bestScore" dynamodbav:"BestScore"`
	GamesPlayed int    `json:"gamesPlayed" dynamodbav:"GamesPlayed"`
}

const TableScores = "BubbleScores"
const TableUsers = "BubbleUsers"

// NewScoreEntry stamps a fresh submission with an id and creation time.
func NewScoreEntry(name string, score int, userID string, now time.Time) ScoreEntry {
	return ScoreEntry{
		ScoreID:   fmt.Sprintf("score-%d-%d", now.UnixNano(), score),
		Name:      name,
		Score:     score,
		UserID:    userID,
		CreatedAt: now.UnixMilli(),
	}
}

// --- Score Operations ---

func SaveScore(ctx context.Context, entry ScoreEntry) error {
	if svc == nil {
		return ErrNotConfigured
	}
	av, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("marshal score: %w", err)
	}
	_, err = svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(TableScores),
		Item:      av,
	})
	if err != nil {
		log.Printf("[DB] Error saving score: %v", err)
		return fmt.Errorf("put score: %w", err)
	}
	log.Printf("[DB] Saved score %s (%s: %d)", entry.ScoreID, entry.Name, entry.Score)
	return nil
}

func GetTopScores(ctx context.Context, limit int) ([]ScoreEntry, error) {
	if svc == nil {
		return nil, ErrNotConfigured
	}

	// Full Scan + Sort (Okay for < 10k scores)
	var all []ScoreEntry
	p := dynamodb.NewScanPaginator(svc, &dynamodb.ScanInput{
		TableName: aws.String(TableScores),
	})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan scores: %w", err)
		}
		var page []ScoreEntry
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal scores: %w", err)
		}
		all = append(all, page...)
	}

	return RankScores(all, limit), nil
}

// RankScores orders entries best first, earliest submission first on ties.
func RankScores(entries []ScoreEntry, limit int) []ScoreEntry {
	sorted := make([]ScoreEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].CreatedAt < sorted[j].CreatedAt
	})

	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}

// --- User Operations ---

func SaveUser(ctx context.Context, user BubbleUser) error {
	if svc == nil {
		return ErrNotConfigured
	}

	// Existing users only get their profile refreshed so stats survive a login
	existing, err := GetUser(ctx, user.UserID)
	if err == nil && existing != nil {
		_, err = svc.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: aws.String(TableUsers),
			Key: map[string]types.AttributeValue{
				"UserID": &types.AttributeValueMemberS{Value: user.UserID},
			},
			UpdateExpression: aws.String("set Picture = :p, #N = :n, Email = :e"),
			ExpressionAttributeNames: map[string]string{
				"#N": "Name", // Name is reserved
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":p": &types.AttributeValueMemberS{Value: user.Picture},
				":n": &types.AttributeValueMemberS{Value: user.Name},
				":e": &types.AttributeValueMemberS{Value: user.Email},
			},
		})
		if err == nil {
			log.Printf("[DB] Updated user profile for: %s", user.Email)
		} else {
			log.Printf("[DB] Error updating user profile: %v", err)
		}
		return err
	}

	// New User
	av, err := attributevalue.MarshalMap(user)
	if err != nil {
		return err
	}
	_, err = svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(TableUsers),
		Item:      av,
	})
	if err == nil {
		log.Printf("[DB] Created new user: %s", user.Email)
	} else {
		log.Printf("[DB] Error creating user: %v", err)
	}
	return err
}

func GetUser(ctx context.Context, userID string) (*BubbleUser, error) {
	if svc == nil {
		return nil, ErrNotConfigured
	}
	out, err := svc.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(TableUsers),
		Key: map[string]types.AttributeValue{
			"UserID": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil // Not found
	}

	var user BubbleUser
	err = attributevalue.UnmarshalMap(out.Item, &user)
	return &user, err
}

// RecordGame bumps GamesPlayed and raises BestScore when score beats it.
func RecordGame(ctx context.Context, userID string, score int) error {
	if svc == nil {
		return ErrNotConfigured
	}
	key := map[string]types.AttributeValue{
		"UserID": &types.AttributeValueMemberS{Value: userID},
	}
	s := &types.AttributeValueMemberN{Value: strconv.Itoa(score)}

	_, err := svc.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(TableUsers),
		Key:              key,
		UpdateExpression: aws.String("add GamesPlayed :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		return fmt.Errorf("count game: %w", err)
	}

	_, err = svc.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(TableUsers),
		Key:                 key,
		UpdateExpression:    aws.String("set BestScore = :s"),
		ConditionExpression: aws.String("attribute_not_exists(BestScore) OR BestScore < :s"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": s,
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		// Not a new best
		return nil
	}
	if err != nil {
		return fmt.Errorf("update best score: %w", err)
	}
	log.Printf("[DB] New best score for user %s: %d", userID, score)
	return nil
}
