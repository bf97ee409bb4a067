package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comments_created_total",
			Help: "Total number of comments created, by kind.",
		}, []string{"kind"})
	commentsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "comments_deleted_total",
			Help: "Total number of comments removed, replies included.",
		})
	votesCast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comment_votes_total",
			Help: "Total number of accepted votes, by polarity.",
		}, []string{"polarity"})
	notificationsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "comment_notifications_failed_total",
			Help: "Total number of comment notifications that could not be published.",
		})
)
