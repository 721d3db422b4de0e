// Package api serves the read operations of the governance module over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/calehh/hac-gov/gov"
	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	errInvalidHash    = errors.New("invalid topic hash")
	errInvalidAddress = errors.New("invalid address")
	errTopicNotFound  = errors.New("topic not found")
)

type Service struct {
	engine *gin.Engine
	gov    *gov.Engine
	db     gov.Viewer
	logger cmtlog.Logger
	server *http.Server
}

// NewService routes the read operations. An empty corsOrigins, or one
// holding "*", allows every origin.
func NewService(listenAddr string, corsOrigins []string, engine *gov.Engine, db gov.Viewer, logger cmtlog.Logger) *Service {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(corsOrigins)))
	s := &Service{
		engine: r,
		gov:    engine,
		db:     db,
		logger: logger.With("module", "api"),
	}
	s.server = &http.Server{Addr: listenAddr, Handler: r}
	s.engine.GET("/topics", s.handleListTopics)
	s.engine.GET("/govNodes", s.handleListGovNodes)
	s.engine.GET("/topic/:hash", s.handleGetTopic)
	s.engine.GET("/topicInfo/:hash", s.handleGetTopicInfo)
	s.engine.GET("/votedInfo/:hash/:voter", s.handleGetVotedInfo)
	s.engine.GET("/votedAddress/:hash", s.handleGetVotedAddress)
	s.engine.GET("/topicInfoList/:address", s.handleGetTopicInfoList)
	s.engine.GET("/nonce/:address", s.handleGetNonce)
	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
	}
	for _, o := range origins {
		if o == "*" {
			origins = nil
			break
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func (s *Service) Handler() http.Handler {
	return s.engine
}

// Start serves until Stop is called.
func (s *Service) Start() {
	s.logger.Info("api listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("api server fail", "err", err)
	}
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type TopicView struct {
	Title  hexutil.Bytes `json:"title"`
	Detail hexutil.Bytes `json:"detail"`
}

type TopicInfoView struct {
	Hash      types.Hash        `json:"hash"`
	Creator   types.Address     `json:"creator"`
	Title     hexutil.Bytes     `json:"title"`
	Detail    hexutil.Bytes     `json:"detail"`
	StartTime uint64            `json:"startTime"`
	EndTime   uint64            `json:"endTime"`
	Approve   uint64            `json:"approve"`
	Reject    uint64            `json:"reject"`
	Status    types.TopicStatus `json:"status"`
}

func NewTopicInfoView(info *types.TopicInfo) TopicInfoView {
	return TopicInfoView{
		Hash:      info.Hash,
		Creator:   info.Creator,
		Title:     info.Title,
		Detail:    info.Detail,
		StartTime: info.StartTime,
		EndTime:   info.EndTime,
		Approve:   info.Approve,
		Reject:    info.Reject,
		Status:    info.Status,
	}
}

type VotedInfoResponse struct {
	State types.VotedState `json:"state"`
}

func parseHash(c *gin.Context) (h types.Hash, err error) {
	dat, err := hexutil.Decode(c.Param("hash"))
	if err != nil || len(dat) != common.HashLength {
		return h, errInvalidHash
	}
	return common.BytesToHash(dat), nil
}

func parseAddress(c *gin.Context, name string) (a types.Address, err error) {
	v := c.Param(name)
	if !common.IsHexAddress(v) {
		return a, errInvalidAddress
	}
	return common.HexToAddress(v), nil
}

func (s *Service) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("api request fail", "path", c.FullPath(), "err", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Service) handleListTopics(c *gin.Context) {
	hashes, err := s.gov.ListTopics(c.Request.Context(), s.db)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if hashes == nil {
		hashes = make([]types.Hash, 0)
	}
	c.JSON(http.StatusOK, hashes)
}

func (s *Service) handleListGovNodes(c *gin.Context) {
	nodes, err := s.gov.ListGovNodes(c.Request.Context())
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, nodes)
}

func (s *Service) handleGetTopic(c *gin.Context) {
	hash, err := parseHash(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	topic, ok, err := s.gov.GetTopic(c.Request.Context(), s.db, hash)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		s.fail(c, http.StatusNotFound, errTopicNotFound)
		return
	}
	c.JSON(http.StatusOK, TopicView{Title: topic.Title, Detail: topic.Detail})
}

func (s *Service) handleGetTopicInfo(c *gin.Context) {
	hash, err := parseHash(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	info, ok, err := s.gov.GetTopicInfo(c.Request.Context(), s.db, hash)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		s.fail(c, http.StatusNotFound, errTopicNotFound)
		return
	}
	c.JSON(http.StatusOK, NewTopicInfoView(info))
}

func (s *Service) handleGetVotedInfo(c *gin.Context) {
	hash, err := parseHash(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	voter, err := parseAddress(c, "voter")
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	st, err := s.gov.GetVotedInfo(c.Request.Context(), s.db, hash, voter)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, VotedInfoResponse{State: st})
}

func (s *Service) handleGetVotedAddress(c *gin.Context) {
	hash, err := parseHash(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	votes, err := s.gov.GetVotedAddress(c.Request.Context(), s.db, hash)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if votes == nil {
		votes = make([]types.VotedInfo, 0)
	}
	c.JSON(http.StatusOK, votes)
}

func (s *Service) handleGetTopicInfoList(c *gin.Context) {
	addr, err := parseAddress(c, "address")
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	infos, err := s.gov.GetTopicInfoListByAddress(c.Request.Context(), s.db, addr)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	res := make([]TopicInfoView, 0, len(infos))
	for _, info := range infos {
		res = append(res, NewTopicInfoView(info))
	}
	c.JSON(http.StatusOK, res)
}

type NonceResponse struct {
	Nonce uint64 `json:"nonce"`
}

func (s *Service) handleGetNonce(c *gin.Context) {
	addr, err := parseAddress(c, "address")
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	var nonce uint64
	err = s.db.View(func(repo *state.Repository) (err error) {
		nonce, err = repo.GetNonce(addr)
		return
	})
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, NonceResponse{Nonce: nonce})
}
