package worker

import (
	"sync"
	"time"

	"experience_booking/internal/pkg/mailer"
	"experience_booking/pkg/logger"

	"go.uber.org/zap"
)

// MailTask 一封待投递的邮件
type MailTask struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	Retry    int // 重试次数
}

// MailDispatcher 异步邮件投递池
// 预订确认邮件是尽力而为的副作用：投递失败只记日志，绝不反馈到下单请求
type MailDispatcher struct {
	TaskQueue  chan MailTask
	RetryQueue chan MailTask // 重试队列
	Mailer     mailer.Mailer
	WorkerNum  int
	MaxRetry   int // 最大重试次数

	wg       sync.WaitGroup
	quit     chan struct{}
	stopOnce sync.Once
}

func NewMailDispatcher(m mailer.Mailer, workerNum int, bufferSize int) *MailDispatcher {
	return &MailDispatcher{
		TaskQueue:  make(chan MailTask, bufferSize),
		RetryQueue: make(chan MailTask, bufferSize/2),
		Mailer:     m,
		WorkerNum:  workerNum,
		MaxRetry:   3, // 最多重试3次
		quit:       make(chan struct{}),
	}
}

func (p *MailDispatcher) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	// 启动重试处理协程
	p.wg.Add(1)
	go p.retryWorker()
	logger.Log.Info("Mail dispatcher started", zap.Int("workers", p.WorkerNum))
}

// Stop 停机：通知所有协程退出并等待在途投递结束
// 队列里未开始的任务会被丢弃，邮件本身就是尽力而为的通道
func (p *MailDispatcher) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
	logger.Log.Info("Mail dispatcher stopped")
}

func (p *MailDispatcher) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.TaskQueue:
			p.deliver(id, task)
		}
	}
}

func (p *MailDispatcher) deliver(id int, task MailTask) {
	if err := p.Mailer.Send(task.To, task.Subject, task.HTMLBody, task.TextBody); err != nil {
		logger.Log.Warn("Failed to deliver mail",
			zap.Int("worker", id),
			zap.String("to", task.To),
			zap.String("subject", task.Subject),
			zap.Int("attempt", task.Retry),
			zap.Error(err),
		)

		// 如果未达到最大重试次数，加入重试队列
		if task.Retry < p.MaxRetry {
			task.Retry++
			select {
			case p.RetryQueue <- task:
			default:
				p.logDeadLetter(task, err)
			}
			return
		}
		p.logDeadLetter(task, err)
	}
}

func (p *MailDispatcher) retryWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.RetryQueue:
			// 延迟重试，避免立即重试
			time.Sleep(time.Duration(task.Retry) * time.Second)

			select {
			case p.TaskQueue <- task:
			default:
				p.logDeadLetter(task, nil)
			}
		}
	}
}

// Enqueue 投递任务入队，队列满则丢弃并记日志
func (p *MailDispatcher) Enqueue(task MailTask) {
	select {
	case p.TaskQueue <- task:
		// 任务入队成功
	default:
		p.logDeadLetter(task, nil)
	}
}

func (p *MailDispatcher) logDeadLetter(task MailTask, err error) {
	// 邮件没有死信存储，丢弃前留一条可检索的日志
	logger.Log.Error("Mail dropped permanently",
		zap.String("to", task.To),
		zap.String("subject", task.Subject),
		zap.Int("attempts", task.Retry),
		zap.Error(err),
	)
}
