package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/joho/godotenv"

	"github.com/mauricedolibois/bubblepop/db"
)

const waitTimeout = 2 * time.Minute

func main() {
	recreate := flag.Bool("recreate", false, "drop existing tables before creating them")
	flag.Parse()

	// Load .env from the repo root when run from cmd/setup_db
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("Warning: No .env file found in ../../, checking current dir")
		if err := godotenv.Load(".env"); err != nil {
			log.Println("Warning: No .env file found")
		}
	}

	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(os.Getenv("AWS_REGION")),
	)
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	svc := dynamodb.NewFromConfig(cfg)

	for _, table := range []string{db.TableScores, db.TableUsers} {
		if *recreate {
			deleteTableIfExists(ctx, svc, table)
		}
		createTable(ctx, svc, table, hashKeyFor(table))
	}
	log.Println("Database setup complete!")
}

func hashKeyFor(table string) string {
	if table == db.TableScores {
		return "ScoreID"
	}
	return "UserID"
}

func deleteTableIfExists(ctx context.Context, svc *dynamodb.Client, tableName string) {
	log.Printf("Deleting old table %s if it exists...", tableName)
	_, err := svc.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(tableName),
	})
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		log.Printf("Table %s does not exist", tableName)
		return
	}
	if err != nil {
		log.Printf("DeleteTable %s failed: %v", tableName, err)
		return
	}

	log.Printf("Waiting for table %s to be deleted...", tableName)
	waiter := dynamodb.NewTableNotExistsWaiter(svc)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tableName)}, waitTimeout); err != nil {
		log.Fatalf("Table %s was not deleted: %v", tableName, err)
	}
	log.Printf("Table %s deleted.", tableName)
}

func createTable(ctx context.Context, svc *dynamodb.Client, tableName, hashKey string) {
	log.Printf("Creating table %s...", tableName)

	_, err := svc.CreateTable(ctx, &dynamodb.CreateTableInput{
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String(hashKey),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String(hashKey),
				KeyType:       types.KeyTypeHash,
			},
		},
		TableName:   aws.String(tableName),
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if errors.As(err, &inUse) {
		log.Printf("Table %s already exists", tableName)
		return
	}
	if err != nil {
		log.Printf("Could not create table %s: %v", tableName, err)
		return
	}

	waiter := dynamodb.NewTableExistsWaiter(svc)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tableName)}, waitTimeout); err != nil {
		log.Printf("Table %s not active yet: %v", tableName, err)
		return
	}
	log.Printf("Table %s created successfully", tableName)
}
