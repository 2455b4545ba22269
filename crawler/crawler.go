package crawler

import (
	"context"
	"sync"
	"time"

	"blaggregator/db"
	"blaggregator/fetcher"
	"blaggregator/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

var (
	crawlsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blaggregator_crawls_total",
		Help: "Number of blog feed crawls attempted",
	})
	crawlErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blaggregator_crawl_errors_total",
		Help: "Number of blog feed crawls that failed",
	})
	postsDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blaggregator_posts_discovered_total",
		Help: "Number of feed entries stored during crawls",
	})
	crawlDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "blaggregator_crawl_duration_seconds",
		Help:    "Duration of a full crawl pass over all blogs",
		Buckets: prometheus.DefBuckets,
	})
)

// Crawler periodically fetches all registered blog feeds with a bounded
// pool of workers and stores new posts.
type Crawler struct {
	db         *db.DB
	fetch      fetcher.FetchFunc
	tagger     *fetcher.LanguageTagger
	maxWorkers int
	queue      chan models.Blog
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

func New(ctx context.Context, database *db.DB, fetch fetcher.FetchFunc, tagger *fetcher.LanguageTagger, maxWorkers int) *Crawler {
	ctx, cancel := context.WithCancel(ctx)

	c := &Crawler{
		db:         database,
		fetch:      fetch,
		tagger:     tagger,
		maxWorkers: maxWorkers,
		queue:      make(chan models.Blog, 100),
		ctx:        ctx,
		cancel:     cancel,
	}

	for i := 0; i < maxWorkers; i++ {
		go c.startWorker(i)
	}

	return c
}

// Run crawls all blogs immediately, then once per interval until the
// context is cancelled.
func (c *Crawler) Run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.CrawlAll(c.ctx)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.CrawlAll(c.ctx)
		}
	}
}

// CrawlAll enqueues every registered blog for a crawl pass.
func (c *Crawler) CrawlAll(ctx context.Context) {
	start := time.Now()

	blogs, err := c.db.ListBlogs(ctx, 0)
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Error("Error listing blogs for crawl")
		return
	}

	log.WithFields(log.Fields{"count": len(blogs)}).Info("Starting crawl pass")

	for _, blog := range blogs {
		c.wg.Add(1)
		select {
		case c.queue <- blog:
		case <-ctx.Done():
			c.wg.Done()
			return
		}
	}

	c.wg.Wait()
	crawlDuration.Observe(time.Since(start).Seconds())
}

func (c *Crawler) Shutdown() {
	log.Info("Shutting down crawler")
	c.cancel()
}

func (c *Crawler) startWorker(id int) {
	for {
		select {
		case <-c.ctx.Done():
			log.Infof("Crawl worker %d: shutting down", id)
			return
		case blog := <-c.queue:
			if err := c.crawlBlog(c.ctx, blog); err != nil {
				crawlErrorsTotal.Inc()
				log.WithFields(log.Fields{
					"blogId":  blog.Id,
					"feedUrl": blog.FeedUrl,
					"error":   err,
				}).Error("Error crawling blog")
			}
			c.wg.Done()
		}
	}
}

func (c *Crawler) crawlBlog(ctx context.Context, blog models.Blog) error {
	crawlsTotal.Inc()

	result, err := c.fetch(ctx, blog.FeedUrl)
	if err != nil {
		return err
	}

	crawledAt := time.Now()
	for _, item := range result.Items {
		post := models.Post{
			BlogId:    blog.Id,
			Url:       item.Url,
			Title:     item.Title,
			Content:   item.Content,
			PostedAt:  item.Published,
			CrawledAt: crawledAt,
		}
		if c.tagger != nil {
			post.Language = c.tagger.Tag(item.Title + " " + item.Content)
		}
		if err := c.db.CreatePost(ctx, post); err != nil {
			return err
		}
		postsDiscovered.Inc()
	}

	return c.db.TouchBlogCrawled(ctx, blog.Id, crawledAt)
}
