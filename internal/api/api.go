package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quizpot/quizpot/internal/domain"
	"github.com/quizpot/quizpot/internal/errors"
	"github.com/quizpot/quizpot/internal/event"
	"github.com/quizpot/quizpot/internal/ledger"
	"github.com/quizpot/quizpot/internal/registry"
	"github.com/quizpot/quizpot/internal/standings"
)

type Config struct {
	Engine       *gin.Engine
	EventBus     *event.Bus
	Registry     *registry.Registry
	Ledger       *ledger.Service
	Standings    *standings.Service
	Redis        Redis
	PubsubPrefix string
	JWTSecret    string
	TokenTTL     time.Duration
}

// API is the thin HTTP/WS wrapper around the room and ledger cores. All
// design risk lives below it; handlers validate input, call one core
// operation and map the typed failure to an HTTP status.
type API struct {
	reg    *registry.Registry
	ldg    *ledger.Service
	std    *standings.Service
	ws     *gateway
	secret string
	ttl    time.Duration
}

func New(c Config) *API {
	a := &API{
		reg:    c.Registry,
		ldg:    c.Ledger,
		std:    c.Standings,
		secret: c.JWTSecret,
		ttl:    c.TokenTTL,
	}
	if a.ttl == 0 {
		a.ttl = 24 * time.Hour
	}

	a.ws = newGateway(c.Registry, c.EventBus)

	if c.Redis != nil {
		newPublisher(c.EventBus, c.Redis, c.PubsubPrefix)
	}

	a.register(c.Engine)
	return a
}

func (a *API) register(e *gin.Engine) {
	e.POST("/api/token", a.mintToken)

	authed := e.Group("/", authMiddleware(a.secret))
	{
		authed.GET("/api/me/balance", a.getBalance)
		authed.GET("/api/me/transactions", a.listTransactions)
		authed.POST("/api/me/deposit", a.deposit)
		authed.POST("/api/me/withdraw", a.withdraw)

		authed.POST("/api/rooms", a.createRoom)
		authed.GET("/api/rooms", a.listRooms)
		authed.GET("/api/rooms/:id", a.getRoom)

		authed.GET("/api/standings", a.getStandings)

		authed.GET("/ws/rooms/:id", a.ws.handle)
	}
}

func (a *API) mintToken(c *gin.Context) {
	var req struct {
		PlayerID string `json:"player_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	token, err := MintToken(a.secret, req.PlayerID, a.ttl)
	if err != nil {
		abortError(c, errors.Internal(err))
		return
	}

	c.JSON(200, gin.H{"token": token})
}

func (a *API) getBalance(c *gin.Context) {
	c.JSON(200, gin.H{
		"player_id": playerID(c),
		"balance":   a.ldg.BalanceOf(c.Request.Context(), playerID(c)),
	})
}

func (a *API) listTransactions(c *gin.Context) {
	history := a.ldg.History(c.Request.Context(), playerID(c))

	out := make([]transactionView, 0, len(history))
	for _, tx := range history {
		out = append(out, toTransactionView(tx))
	}
	c.JSON(200, gin.H{"transactions": out})
}

func (a *API) deposit(c *gin.Context) {
	a.move(c, domain.TransactionDeposit)
}

func (a *API) withdraw(c *gin.Context) {
	a.move(c, domain.TransactionWithdraw)
}

func (a *API) move(c *gin.Context, kind domain.TransactionKind) {
	var req struct {
		Amount int64 `json:"amount" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	var (
		tx  domain.Transaction
		err error
	)
	if kind == domain.TransactionDeposit {
		tx, err = a.ldg.Credit(c.Request.Context(), playerID(c), req.Amount, kind, "")
	} else {
		tx, err = a.ldg.Debit(c.Request.Context(), playerID(c), req.Amount, kind, "")
	}
	if err != nil {
		abortError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"transaction": toTransactionView(tx),
		"balance":     a.ldg.BalanceOf(c.Request.Context(), playerID(c)),
	})
}

func (a *API) createRoom(c *gin.Context) {
	var req settingsView
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	r, err := a.reg.Create(c.Request.Context(), req.toSettings(), playerID(c))
	if err != nil {
		abortError(c, err)
		return
	}

	snap, err := r.Snapshot(c.Request.Context())
	if err != nil {
		abortError(c, err)
		return
	}

	c.JSON(201, gin.H{"room": toRoomView(snap)})
}

func (a *API) listRooms(c *gin.Context) {
	rooms, err := a.reg.ListJoinable(c.Request.Context())
	if err != nil {
		abortError(c, err)
		return
	}

	out := make([]roomView, 0, len(rooms))
	for _, snap := range rooms {
		out = append(out, toRoomView(snap))
	}
	c.JSON(200, gin.H{"rooms": out})
}

func (a *API) getRoom(c *gin.Context) {
	r, err := a.reg.Get(c.Param("id"))
	if err != nil {
		abortError(c, err)
		return
	}

	snap, err := r.Snapshot(c.Request.Context())
	if err != nil {
		abortError(c, err)
		return
	}

	c.JSON(200, gin.H{"room": toRoomView(snap)})
}

func (a *API) getStandings(c *gin.Context) {
	if a.std == nil {
		abortError(c, errors.New(errors.CodeNotFound,
			errors.WithMessagef("standings are not enabled on this instance")))
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	rows, err := a.std.GetTop(c.Request.Context(), standings.GetTopRequest{Limit: limit})
	if err != nil {
		abortError(c, err)
		return
	}

	out := make([]standingRowView, 0, len(rows))
	for _, r := range rows {
		out = append(out, toStandingRowView(r))
	}
	c.JSON(200, gin.H{"standings": out})
}

func abortError(c *gin.Context, err error) {
	e := errors.Convert(err)
	c.AbortWithStatusJSON(e.HTTPStatusCode(), gin.H{"error": e})
}
