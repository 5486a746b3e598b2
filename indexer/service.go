package indexer

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

// Service is the JSON query surface over the read models.
type Service struct {
	engine     *gin.Engine
	indexer    *Indexer
	listenAddr string
}

func NewService(listenAddr string, indexer *Indexer) *Service {
	r := gin.Default()
	s := &Service{
		engine:     r,
		indexer:    indexer,
		listenAddr: listenAddr,
	}
	s.engine.POST("/getTreasury", s.handleGetTreasury)
	s.engine.POST("/getProposals", s.handleGetProposals)
	s.engine.POST("/getHistoricalBalances", s.handleGetHistoricalBalances)
	return s
}

func (s *Service) Start() {
	s.engine.Run(s.listenAddr)
}

type GetTreasuryResponse struct {
	Treasury Treasury `json:"treasury"`
	Height   uint64   `json:"height"`
}

func (s *Service) handleGetTreasury(c *gin.Context) {
	t, err := s.indexer.getTreasury()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetTreasuryResponse{Treasury: t, Height: s.indexer.Height()})
}

type GetProposalsReq struct {
	ProposalId string `json:"proposalId"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
}

type GetProposalsResponse struct {
	Proposals []Proposal `json:"proposals"`
	Total     uint64     `json:"total"`
}

func (s *Service) handleGetProposals(c *gin.Context) {
	var response GetProposalsResponse
	response.Proposals = make([]Proposal, 0)
	var requestData GetProposalsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if requestData.ProposalId != "" {
		p, err := s.indexer.getProposalById(requestData.ProposalId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusOK, response)
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, p)
		response.Total = 1
		c.JSON(http.StatusOK, response)
		return
	}

	ps, total, err := s.indexer.getProposals(requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Proposals = append(response.Proposals, ps...)
	response.Total = total
	c.JSON(http.StatusOK, response)
}

type GetHistoricalBalancesReq struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

type GetHistoricalBalancesResponse struct {
	Balances []HistoricalBalance `json:"balances"`
	Total    uint64              `json:"total"`
}

func (s *Service) handleGetHistoricalBalances(c *gin.Context) {
	var response GetHistoricalBalancesResponse
	response.Balances = make([]HistoricalBalance, 0)
	var requestData GetHistoricalBalancesReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hbs, total, err := s.indexer.getHistoricalBalances(requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Balances = append(response.Balances, hbs...)
	response.Total = total
	c.JSON(http.StatusOK, response)
}
