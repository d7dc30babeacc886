package etl

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"remotejobs/aggregator/internal/model"
)

// metricTypeDaily is the metric_type key for the daily aggregate bundle.
const metricTypeDaily = "daily_metrics"

// remoteKeywords are the free-text indicators counted by the remote-work
// metric, matched case-insensitively against title + description.
var remoteKeywords = []string{
	"remote", "distributed", "work from home", "wfh", "telecommute", "virtual", "online",
}

// locationAgnosticValues are location strings treated as "no fixed location".
var locationAgnosticValues = map[string]bool{
	"": true, "remote": true, "anywhere": true, "global": true,
}

// GenerateAnalyticsMetrics computes the daily aggregate metrics over the
// active-job set and writes them to both the cold store and the secondary
// store. Re-running on the same date overwrites the previous generation.
func (p *Pipeline) GenerateAnalyticsMetrics(ctx context.Context, day time.Time) (model.Metrics, error) {
	if day.IsZero() {
		day = p.now()
	}
	day = dateOnly(day)

	jobs, err := p.docs.ActiveJobs(ctx)
	if err != nil {
		return model.Metrics{}, fmt.Errorf("read active jobs: %w", err)
	}

	metrics := ComputeMetrics(jobs)

	if _, err := p.lake.StoreAnalytics(ctx, metricTypeDaily, metrics, day); err != nil {
		return metrics, fmt.Errorf("store analytics in data lake: %w", err)
	}

	err = p.docs.ReplaceAnalytics(ctx, model.AnalyticsDoc{
		Date:       day,
		MetricType: metricTypeDaily,
		Data:       metrics,
	})
	if err != nil {
		return metrics, fmt.Errorf("store analytics in secondary store: %w", err)
	}

	log.Printf("[analytics] Metrics generated for %s over %d jobs",
		day.Format("2006-01-02"), metrics.TotalJobs)
	return metrics, nil
}

// ComputeMetrics derives every aggregate metric from the given job set.
func ComputeMetrics(jobs []model.JobDocument) model.Metrics {
	return model.Metrics{
		TotalJobs:        len(jobs),
		SalaryStats:      salaryStats(jobs),
		ExperienceLevels: experienceDistribution(jobs),
		CompanyStats:     companyStats(jobs),
		SkillsAnalysis:   skillsAnalysis(jobs),
		RemoteIndicators: remoteIndicators(jobs),
		AIStats:          aiStats(jobs),
	}
}

// salaryStats aggregates over the effective salary of each record: midpoint
// when both bounds exist, the single bound otherwise; records with neither
// are excluded entirely (never counted as zero).
func salaryStats(jobs []model.JobDocument) model.SalaryStats {
	var salaries []float64
	for _, job := range jobs {
		if v, ok := job.EffectiveSalary(); ok {
			salaries = append(salaries, v)
		}
	}
	if len(salaries) == 0 {
		return model.SalaryStats{}
	}

	sort.Float64s(salaries)
	var sum float64
	for _, v := range salaries {
		sum += v
	}

	return model.SalaryStats{
		Count:   len(salaries),
		Average: sum / float64(len(salaries)),
		Median:  salaries[len(salaries)/2],
		Min:     salaries[0],
		Max:     salaries[len(salaries)-1],
	}
}

func experienceDistribution(jobs []model.JobDocument) map[string]int {
	dist := make(map[string]int)
	for _, job := range jobs {
		level := job.ExperienceLevel
		if level == "" {
			level = "unknown"
		}
		dist[level]++
	}
	return dist
}

func companyStats(jobs []model.JobDocument) model.CompanyStats {
	counts := make(map[string]int)
	for _, job := range jobs {
		company := job.Company
		if company == "" {
			company = "Unknown"
		}
		counts[company]++
	}

	top := make([]model.CompanyCount, 0, len(counts))
	for company, n := range counts {
		top = append(top, model.CompanyCount{Company: company, Count: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Company < top[j].Company
	})
	if len(top) > 10 {
		top = top[:10]
	}

	return model.CompanyStats{TotalCompanies: len(counts), TopCompanies: top}
}

// skillsAnalysis counts skill demand and the average effective salary of the
// postings listing each skill (postings without salary don't dilute it).
func skillsAnalysis(jobs []model.JobDocument) model.SkillsAnalysis {
	counts := make(map[string]int)
	salarySums := make(map[string]float64)
	salaryCounts := make(map[string]int)

	for _, job := range jobs {
		salary, hasSalary := job.EffectiveSalary()
		for _, skill := range job.Skills {
			counts[skill]++
			if hasSalary {
				salarySums[skill] += salary
				salaryCounts[skill]++
			}
		}
	}

	stats := make([]model.SkillStat, 0, len(counts))
	for skill, n := range counts {
		stat := model.SkillStat{Skill: skill, Count: n}
		if sc := salaryCounts[skill]; sc > 0 {
			stat.AverageSalary = salarySums[skill] / float64(sc)
		}
		stats = append(stats, stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Skill < stats[j].Skill
	})
	if len(stats) > 20 {
		stats = stats[:20]
	}

	return model.SkillsAnalysis{TotalUniqueSkills: len(counts), MostDemanded: stats}
}

func remoteIndicators(jobs []model.JobDocument) model.RemoteIndicators {
	var ind model.RemoteIndicators
	for _, job := range jobs {
		if job.RemoteType == "remote" {
			ind.ExplicitlyRemote++
		}

		text := strings.ToLower(job.Title + " " + job.Description)
		for _, kw := range remoteKeywords {
			if strings.Contains(text, kw) {
				ind.HasRemoteKeywords++
				break
			}
		}

		if locationAgnosticValues[strings.ToLower(job.Location)] {
			ind.LocationAgnostic++
		}
	}
	return ind
}

func aiStats(jobs []model.JobDocument) model.AIStats {
	processed := 0
	for _, job := range jobs {
		if job.AIProcessed {
			processed++
		}
	}

	rate := 0.0
	if len(jobs) > 0 {
		rate = float64(processed) / float64(len(jobs)) * 100
	}

	return model.AIStats{
		TotalJobs:      len(jobs),
		AIProcessed:    processed,
		ProcessingRate: rate,
	}
}
