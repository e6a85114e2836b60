package service

import "go.uber.org/zap"

func PollFields(p *Poll, others ...zap.Field) []zap.Field {
	return append([]zap.Field{zap.Namespace("poll"), zap.String("id", p.ID), zap.Bool("active", p.IsActive), zap.Int64("end_ms", p.EndTimeMillis)}, others...)
}

func SweepFields(r *SweepReport, others ...zap.Field) []zap.Field {
	return append([]zap.Field{
		zap.Int("scanned", r.Scanned),
		zap.Int("expired", r.Expired),
		zap.Int("deactivated", r.Deactivated),
		zap.Int("failed", r.Failed),
		zap.Duration("took", r.Duration),
	}, others...)
}
