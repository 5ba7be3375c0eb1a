package main

import (
	"database/sql"
	"io"
	"log"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	_ "github.com/mattn/go-sqlite3"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/memory"
	"github.com/tmc/langchaingo/memory/sqlite3"

	"placescout/config"
	"placescout/places"
	"placescout/recommend"
)

const SummarySysPrompt = `You present place recommendations to the user in a short, friendly reply with the following REQUIREMENTS:
1. For EACH place, include its name and rating
2. Mention the address when one is listed
3. Keep the whole reply under 120 words
4. Do not invent places that are not in the list
5. Do not ask for additional information
6. Return only the reply, without any additional explanations or thoughts.`

type Agent struct {
	config   *config.Config
	handler  *Handler
	upgrader websocket.Upgrader
}

func main() {
	cfg := config.LoadConfig()

	sqliteDb, err := sql.Open("sqlite3", "chat_history.db")
	if err != nil {
		log.Fatal(err)
	}

	chatHistory := sqlite3.NewSqliteChatMessageHistory(
		sqlite3.WithSession("place-scout-agent"),
		sqlite3.WithDB(sqliteDb),
	)
	conversationBuffer := memory.NewConversationBuffer(memory.WithChatHistory(chatHistory))

	db, err := NewPlacePg(cfg.Postgres.ConnStr())
	if err != nil {
		log.Fatal(err)
	}

	embeddingLLM, err := ollama.New(
		ollama.WithServerURL(cfg.Ollama.Address()),
		ollama.WithModel(cfg.Ollama.EmbeddingModel),
	)
	if err != nil {
		log.Fatal(err)
	}

	extractorLLM, err := ollama.New(
		ollama.WithServerURL(cfg.Ollama.Address()),
		ollama.WithModel(cfg.Ollama.ExtractorModel),
	)
	if err != nil {
		log.Fatal(err)
	}

	recommenderLLM, err := ollama.New(
		ollama.WithServerURL(cfg.Ollama.Address()),
		ollama.WithModel(cfg.Ollama.RecommenderModel),
	)
	if err != nil {
		log.Fatal(err)
	}

	summaryLLM, err := ollama.New(
		ollama.WithServerURL(cfg.Ollama.Address()),
		ollama.WithModel(cfg.Ollama.SummaryModel),
		ollama.WithSystemPrompt(SummarySysPrompt),
	)
	if err != nil {
		log.Fatal(err)
	}

	llmChain := chains.NewConversation(summaryLLM, conversationBuffer)

	mapsClient := places.NewClient(cfg.Google)

	pipeline := recommend.NewPipeline(
		NewOllamaGenerator(extractorLLM),
		NewOllamaGenerator(recommenderLLM),
		mapsClient,
		db,
		recommend.Options{
			GenerationTimeout: cfg.Recommender.GenerationTimeout,
			SearchRadius:      cfg.Recommender.SearchRadius,
			MaxCandidates:     cfg.Recommender.MaxCandidates,
			DevMode:           cfg.Recommender.DevMode,
		},
	)

	handler, err := NewHandler(pipeline, &llmChain, embeddingLLM, mapsClient, db)
	if err != nil {
		log.Fatal(err)
	}

	agent := &Agent{
		handler:  handler,
		config:   cfg,
		upgrader: websocket.Upgrader{},
	}

	if err := agent.Run(); err != nil {
		log.Fatalf("failed to run the agent: %v", err)
	}
}

func (a *Agent) Run() error {
	r := gin.Default()

	r.StaticFile("/", "web/index.html")

	r.GET("/search", func(ctx *gin.Context) {
		input, _ := ctx.GetQuery("input")
		longitude, _ := ctx.GetQuery("longitude")
		latitude, _ := ctx.GetQuery("latitude")

		w, req := ctx.Writer, ctx.Request
		c, err := a.upgrader.Upgrade(w, req, nil)
		if err != nil {
			log.Println("upgrade:", err)
			return
		}
		defer c.Close()

		var point *places.LatLng

		if longitude != "" && latitude != "" {
			point = &places.LatLng{}

			point.Lat, err = strconv.ParseFloat(latitude, 64)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid latitude"})
				return
			}

			point.Lng, err = strconv.ParseFloat(longitude, 64)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid longitude"})
				return
			}
		}

		resultChan := a.handler.SearchByUserQuery(ctx, input, point)
		for {
			select {
			case <-ctx.Request.Context().Done():
				return
			case result := <-resultChan:
				if result == nil {
					return
				}
				if result.Err != nil {
					if result.Err == io.EOF {
						return
					}
					ctx.JSON(http.StatusInternalServerError, gin.H{"error": result.Err.Error()})
					return
				}

				if err := c.WriteJSON(result.Msg); err != nil {
					slog.Error("failed to write to ws connection", "error", err)
					return
				}
			}
		}
	})

	r.POST("/recommend", func(ctx *gin.Context) {
		var req struct {
			Location string `json:"location"`
			Query    string `json:"query"`
		}

		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Query == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
			return
		}

		outcome := a.handler.pipeline.ProcessRecommendationQuery(ctx, req.Location, req.Query)
		ctx.JSON(outcomeStatus(outcome), outcome)
	})

	r.POST("/clarify", func(ctx *gin.Context) {
		var req struct {
			Input  string           `json:"input"`
			Chosen places.Candidate `json:"chosen"`
		}

		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Input == "" || req.Chosen.PlaceID == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "input and chosen location are required"})
			return
		}

		outcome := a.handler.pipeline.ClarifyLocation(ctx, req.Input, req.Chosen)
		ctx.JSON(outcomeStatus(outcome), outcome)
	})

	r.GET("/similar", func(ctx *gin.Context) {
		input, _ := ctx.GetQuery("input")
		if input == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "input is required"})
			return
		}

		results, err := a.handler.SimilarPlaces(ctx, input, 10)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		ctx.JSON(http.StatusOK, results)
	})

	r.GET("/places", func(ctx *gin.Context) {
		results, err := a.handler.pg.ListPlaces(ctx)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		ctx.JSON(http.StatusOK, results)
	})

	r.GET("/places/:id", func(ctx *gin.Context) {
		details, err := a.handler.PlaceDetails(ctx, ctx.Param("id"))
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		ctx.JSON(http.StatusOK, details)
	})

	return r.Run(a.config.Server.Address())
}

func outcomeStatus(outcome *recommend.Outcome) int {
	if outcome.OK || outcome.NeedsLocationClarification {
		return http.StatusOK
	}

	return http.StatusBadGateway
}
