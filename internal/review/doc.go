// Package review is the review orchestration core.
//
// An [Engine] builds one [Task] per file × perspective and runs them on an
// errgroup-bounded worker pool. Each task consults the [ResultCache] first;
// on a miss it goes to a [Submitter] (normally a [RemoteReviewer]), with
// concurrent identical work collapsed through singleflight. Results are
// cached whether or not they are degraded; failures never are. Every task
// has its own deadline and a task that misses it becomes a [Failure]
// without touching its siblings.
//
// Model replies are untrusted. [ParseReply] hunts for a JSON object with
// issues, summary and score in free-form text; when nothing usable is found
// the reviewer returns a degraded [Result] scored 50 instead of an error.
//
// [Aggregator] reduces outcomes to a [Report]: issues flattened and
// stable-sorted HIGH, MEDIUM, LOW then anything else, the exposed list
// capped while total_issues stays exact, and the average score rounded to
// one decimal. [Evaluate] turns a report and threshold into a [Status].
package review
