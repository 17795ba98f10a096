package adminapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dynacluster/dynacluster/cluster"
)

// memberView is the JSON shape returned for a single member.
type memberView struct {
	ID              string `json:"id"`
	ClusterMemberID int64  `json:"cluster_member_id"`
	Startable       bool   `json:"startable"`
	ServiceUp       string `json:"service_up"`
}

func toMemberView(m *cluster.Member) memberView {
	return memberView{
		ID:              m.ID,
		ClusterMemberID: m.ClusterMemberID,
		Startable:       m.IsStartable,
		ServiceUp:       m.ServiceUp().String(),
	}
}

// getClusterHandler reports the controller's current size, state, and
// membership.
func (s *Server) getClusterHandler(c *gin.Context) {
	members := s.controller.Members()
	views := make([]memberView, len(members))
	for i, m := range members {
		views[i] = toMemberView(m)
	}

	oneAndAllUp, _ := s.controller.Sensor(cluster.SensorClusterOneAndAllMembersUp)

	c.JSON(http.StatusOK, gin.H{
		"id":                        s.controller.ID(),
		"expected_state":            s.controller.ExpectedState().String(),
		"current_size":              s.controller.CurrentSize(),
		"quarantine_size":           s.controller.QuarantineSize(),
		"one_and_all_members_up":   oneAndAllUp,
		"members":                   views,
	})
}

type resizeRequest struct {
	Desired int `json:"desired" binding:"required,min=0"`
}

// resizeHandler drives the cluster to a new desired size.
func (s *Server) resizeHandler(c *gin.Context) {
	var req resizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	size, err := s.controller.Resize(c.Request.Context(), req.Desired)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resize_failed", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"current_size": size})
}

type resizeByDeltaRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// resizeByDeltaHandler grows or shrinks the cluster by a relative amount.
func (s *Server) resizeByDeltaHandler(c *gin.Context) {
	var req resizeByDeltaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	result, err := s.controller.ResizeByDelta(c.Request.Context(), req.Delta)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resize_failed", "message": err.Error()})
		return
	}

	members := make([]memberView, len(result.Value))
	for i, m := range result.Value {
		members[i] = toMemberView(m)
	}
	c.JSON(http.StatusOK, gin.H{
		"members":      members,
		"masked_error": result.Kind == cluster.ResultOkWithMaskedError,
	})
}

// replaceMemberHandler replaces a single member in place.
func (s *Server) replaceMemberHandler(c *gin.Context) {
	memberID := c.Param("id")
	newID, err := s.controller.ReplaceMember(c.Request.Context(), memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "replace_failed", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"new_member_id": newID})
}

// stopHandler stops the cluster and all its members.
func (s *Server) stopHandler(c *gin.Context) {
	if err := s.controller.Stop(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stop_failed", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"expected_state": s.controller.ExpectedState().String()})
}

// healthHandler reports process-level liveness, independent of auth.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "healthy",
		"websocket_clients": s.hub.ConnectedClients(),
	})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// loginHandler exchanges credentials (checked against the in-memory
// credential store configured on the server) for a token pair.
func (s *Server) loginHandler(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	role, ok := s.authenticate(req.Username, req.Password)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
		return
	}

	tokens, err := s.jwt.GenerateToken(req.Username, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_generation_failed", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tokens)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// refreshHandler mints a fresh access token from a refresh token.
func (s *Server) refreshHandler(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	tokens, err := s.jwt.RefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_refresh_token", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tokens)
}
