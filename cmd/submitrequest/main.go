// Command submitrequest pushes one packaging request onto the intake
// queue, for operating or testing the worker without a real upstream
// system.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/healthbridge/udd/internal/config"
	"github.com/healthbridge/udd/internal/intake"
	"github.com/healthbridge/udd/internal/model"
)

func main() {
	studyID := flag.String("study", "", "study id")
	userID := flag.String("user", "", "user id")
	startDate := flag.String("start", "", "inclusive start date, YYYY-MM-DD")
	endDate := flag.String("end", "", "inclusive end date, YYYY-MM-DD")
	flag.Parse()

	start, err := model.ParseDate(*startDate)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}
	end, err := model.ParseDate(*endDate)
	if err != nil {
		log.Fatalf("invalid -end: %v", err)
	}

	req := model.Request{StudyID: *studyID, UserID: *userID, StartDate: start, EndDate: end}
	if err := req.Validate(); err != nil {
		log.Fatalf("invalid request: %v", err)
	}

	payload, err := intake.EncodeRequest(req)
	if err != nil {
		log.Fatalf("encode request: %v", err)
	}

	cfg := config.LoadConfig()
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("parse redis url: %v", err)
	}
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.RPush(ctx, cfg.RequestQueueName, payload).Err(); err != nil {
		log.Fatalf("enqueue request: %v", err)
	}

	log.Printf("submitted request for study=%s user=%s", req.StudyID, req.UserID)
}
